package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// Execute performs actions in order. A failed action is logged and the rest still run.
func (app *BotApp) Execute(ctx context.Context, actions []bot.Action) {
	for _, a := range actions {
		if err := app.execute(a); err != nil {
			app.log.Error("action failed", zap.String("action", fmt.Sprintf("%T", a)), zap.Error(err))
		}
	}
}

func (app *BotApp) execute(a bot.Action) error {
	switch a := a.(type) {
	case bot.ActionSend:
		chatID, err := parseChatID(a.ChannelID)
		if err != nil {
			return err
		}
		_, err = app.api.Send(tgbotapi.NewMessage(chatID, a.Text))
		return err

	case bot.ActionReply:
		chatID, err := parseChatID(a.ChannelID)
		if err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, a.Text)
		msg.ReplyToMessageID = a.MessageID
		msg.AllowSendingWithoutReply = true
		_, err = app.api.Send(msg)
		return err

	case bot.ActionReact:
		chatID, err := parseChatID(a.ChannelID)
		if err != nil {
			return err
		}
		params := tgbotapi.Params{}
		params.AddNonZero64("chat_id", chatID)
		params.AddNonZero("message_id", a.MessageID)
		if err := params.AddInterface("reaction", []reactionType{{Type: "emoji", Emoji: a.Emoji}}); err != nil {
			return err
		}
		_, err = app.api.MakeRequest("setMessageReaction", params)
		if err != nil {
			return fmt.Errorf("react %q: %w", a.Emoji, err)
		}
		return nil

	case bot.ActionSendImage:
		err := app.sendImage(a)
		if err != nil && a.OnError != nil {
			a.OnError(err)
		}
		return err
	}
	return fmt.Errorf("telegram: unsupported action %T", a)
}

func (app *BotApp) sendImage(a bot.ActionSendImage) error {
	chatID, err := parseChatID(a.ChannelID)
	if err != nil {
		return err
	}

	var file tgbotapi.RequestFileData
	switch {
	case len(a.Image) > 0:
		file = tgbotapi.FileBytes{
			Name:  fmt.Sprintf("image-%d.png", time.Now().UnixMilli()),
			Bytes: a.Image,
		}
	case a.URL != "":
		file = tgbotapi.FileURL(a.URL)
	default:
		return fmt.Errorf("telegram: image action without data")
	}

	photo := tgbotapi.NewPhoto(chatID, file)
	photo.Caption = truncate(a.Caption, MaxCaptionLength)
	_, err = app.api.Send(photo)
	return err
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram: bad chat id %q: %w", s, err)
	}
	return id, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
