package featuretoken

import (
	"time"

	"github.com/Vovarama1992/relay_bot/internal/expirable"
)

// Token is one unit of a rate-limited feature spent by a user.
type Token struct {
	expirable.Object

	UserID string
}

func NewToken(userID string) *Token {
	return NewTokenAt(userID, time.Now())
}

func NewTokenAt(userID string, at time.Time) *Token {
	return &Token{Object: expirable.NewObjectAt(at), UserID: userID}
}
