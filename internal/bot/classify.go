package bot

import (
	"strings"
	"unicode"
)

type MessageType int

const (
	UserMessage MessageType = iota
	AtMention
	DirectMessage
	OwnMessage
	BotMessage
)

func (t MessageType) String() string {
	switch t {
	case AtMention:
		return "at_mention"
	case DirectMessage:
		return "direct_message"
	case OwnMessage:
		return "own_message"
	case BotMessage:
		return "bot_message"
	}
	return "user_message"
}

// Classify decides how the pipeline treats ev. The bot's own messages are
// never answered, even when they mention it.
func Classify(self Identity, ev Event) MessageType {
	switch {
	case ev.AuthorID == self.ID:
		return OwnMessage
	case mentionsSelf(self, ev):
		return AtMention
	case ev.AuthorIsBot:
		return BotMessage
	case ev.IsDirectMessage:
		return DirectMessage
	}
	return UserMessage
}

func mentionsSelf(self Identity, ev Event) bool {
	for _, m := range ev.Mentions {
		if isSelf(self, m) {
			return true
		}
	}
	return false
}

func isSelf(self Identity, m Mention) bool {
	if m.ID != "" && m.ID == self.ID {
		return true
	}
	return m.Username != "" && strings.EqualFold(m.Username, self.Username)
}

// CleanText drops the bot's own @mention and turns other @mentions into bare
// usernames.
func CleanText(self Identity, ev Event) string {
	text := ev.RawText
	for _, m := range ev.Mentions {
		if m.Username == "" {
			continue
		}
		tag := "@" + m.Username
		if isSelf(self, m) {
			text = replaceFold(text, tag, "")
			continue
		}
		text = replaceFold(text, tag, m.Username)
	}
	return strings.Join(strings.Fields(text), " ")
}

// replaceFold is strings.ReplaceAll with an ASCII case-insensitive match.
func replaceFold(s, old, repl string) string {
	if old == "" {
		return s
	}
	lower, lowerOld := strings.ToLower(s), strings.ToLower(old)
	if len(lower) != len(s) {
		return strings.ReplaceAll(s, old, repl)
	}

	var b strings.Builder
	for {
		i := strings.Index(lower, lowerOld)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(repl)
		s, lower = s[i+len(old):], lower[i+len(old):]
	}
}

// firstEmoji returns the first pictographic rune of s, "" when there is none.
func firstEmoji(s string) string {
	for _, r := range s {
		if isEmoji(r) {
			return string(r)
		}
	}
	return ""
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	}
	return unicode.Is(unicode.So, r)
}
