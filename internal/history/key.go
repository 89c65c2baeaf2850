package history

import (
	"fmt"
	"strings"
)

// KeyMode selects how turns are grouped into conversations. Chosen once at startup.
type KeyMode string

const (
	KeyModeChannel KeyMode = "channel"
	KeyModeUser    KeyMode = "user"
)

func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case KeyModeChannel:
		return KeyModeChannel, nil
	case KeyModeUser:
		return KeyModeUser, nil
	}
	return "", fmt.Errorf("history: unknown conversation mode %q", s)
}

// ConversationKey returns guild:channel, or guild:channel:author in user mode.
func (m KeyMode) ConversationKey(guildID, channelID, authorID string) string {
	if m == KeyModeUser {
		return guildID + ":" + channelID + ":" + authorID
	}
	return guildID + ":" + channelID
}
