package history

import (
	"regexp"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/expirable"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn kept for the conversation retention window.
type Message struct {
	expirable.Object

	ConversationKey string
	Role            Role
	SpeakerName     string // empty for assistant turns
	Text            string
}

func NewMessage(key string, role Role, speaker, text string) *Message {
	return NewMessageAt(key, role, speaker, text, time.Now())
}

func NewMessageAt(key string, role Role, speaker, text string, at time.Time) *Message {
	name := SanitizeName(speaker)
	if role == RoleAssistant {
		// the completion API rejects a named assistant turn
		name = ""
	}
	return &Message{
		Object:          expirable.NewObjectAt(at),
		ConversationKey: key,
		Role:            role,
		SpeakerName:     name,
		Text:            text,
	}
}

var (
	nameAllowed = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	nameReplace = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// SanitizeName fits a chat username into the completion API name field.
// Returns "" when nothing usable is left.
func SanitizeName(name string) string {
	if name == "" {
		return ""
	}
	clean := nameReplace.ReplaceAllString(name, "_")
	if !nameAllowed.MatchString(clean) {
		return ""
	}
	return clean
}
