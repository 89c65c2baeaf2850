package bot

import (
	"context"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/featuretoken"
	"github.com/Vovarama1992/relay_bot/internal/history"
)

type History interface {
	Record(key string, role history.Role, speaker, text string) (*history.Message, error)
	MessagesFor(key string) []*history.Message
	CountFor(key string) int
}

type Tokens interface {
	Spend(userID string) (*featuretoken.Token, error)
	RemoveNewestToken(userID string) bool
	TokensRemaining(userID string) int
	NextTokenAvailableAt(userID string) (time.Time, bool)
}

// ImageArchive stores generated images and returns a public URL.
type ImageArchive interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, err error, details string)
}
