package telegram

import (
	"strconv"
	"unicode/utf16"

	"github.com/Vovarama1992/relay_bot/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	MaxMessageLength = 4096
	MaxCaptionLength = 1024

	// GuildID used for private chats
	directGuild = "dm"
)

// Identity reads the bot account the API token belongs to.
func Identity(api *tgbotapi.BotAPI) bot.Identity {
	return bot.Identity{
		ID:       strconv.FormatInt(api.Self.ID, 10),
		Username: api.Self.UserName,
	}
}

// ToEvent converts a Telegram message. Messages without text or caption are skipped.
func ToEvent(msg *tgbotapi.Message) (bot.Event, bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Event{}, false
	}

	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}
	if text == "" {
		return bot.Event{}, false
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	ev := bot.Event{
		ID:              uuid.NewString(),
		MessageID:       msg.MessageID,
		AuthorID:        strconv.FormatInt(msg.From.ID, 10),
		AuthorName:      authorName(msg.From),
		AuthorIsBot:     msg.From.IsBot,
		GuildID:         chatID,
		ChannelID:       chatID,
		IsDirectMessage: msg.Chat.IsPrivate(),
		Mentions:        mentions(text, entities),
		RawText:         text,
	}
	if ev.IsDirectMessage {
		ev.GuildID = directGuild
	}
	if msg.Text != "" {
		ev.Command = msg.Command()
	}
	return ev, true
}

func authorName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

func mentions(text string, entities []tgbotapi.MessageEntity) []bot.Mention {
	var out []bot.Mention
	for _, e := range entities {
		switch e.Type {
		case "mention":
			name := entityText(text, e)
			if len(name) > 1 && name[0] == '@' {
				out = append(out, bot.Mention{Username: name[1:]})
			}
		case "text_mention":
			if e.User != nil {
				out = append(out, bot.Mention{
					ID:       strconv.FormatInt(e.User.ID, 10),
					Username: e.User.UserName,
					IsBot:    e.User.IsBot,
				})
			}
		}
	}
	return out
}

// entityText cuts an entity out of text. Telegram offsets count UTF-16 units.
func entityText(text string, e tgbotapi.MessageEntity) string {
	units := utf16.Encode([]rune(text))
	end := e.Offset + e.Length
	if e.Offset < 0 || e.Length <= 0 || end > len(units) {
		return ""
	}
	return string(utf16.Decode(units[e.Offset:end]))
}
