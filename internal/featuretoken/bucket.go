package featuretoken

import (
	"context"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/expirable"
)

// Bucket caps how many live tokens a single user may hold at once.
type Bucket struct {
	max     int
	objects *expirable.Bucket[*Token]
}

type Option = expirable.Option[*Token]

func WithClock(now func() time.Time) Option {
	return expirable.WithClock[*Token](now)
}

func WithPollInterval(d time.Duration) Option {
	return expirable.WithPollInterval[*Token](d)
}

func WithOnExpire(fn func(*Token)) Option {
	return expirable.WithOnExpire(fn)
}

func NewBucket(maxTokensPerUser int, tokenLifespan time.Duration, opts ...Option) *Bucket {
	if maxTokensPerUser < 0 {
		maxTokensPerUser = 0
	}
	return &Bucket{
		max:     maxTokensPerUser,
		objects: expirable.NewBucket[*Token](tokenLifespan, opts...),
	}
}

func (b *Bucket) MaxTokensPerUser() int {
	return b.max
}

// Add inserts token unless its user already holds the maximum.
// The count and the insert happen under one lock.
func (b *Bucket) Add(token *Token) error {
	return b.objects.AddIf(token, func(live []*Token) error {
		var held []*Token
		for _, t := range live {
			if t.UserID == token.UserID {
				held = append(held, t)
			}
		}
		if len(held) < b.max {
			return nil
		}
		e := &MaxUserTokensError{UserID: token.UserID}
		if len(held) > 0 {
			e.NextAvailableAt = held[0].ExpiresAt()
		}
		return e
	})
}

// Spend stamps a token with the bucket clock and adds it.
func (b *Bucket) Spend(userID string) (*Token, error) {
	token := NewTokenAt(userID, b.objects.Now())
	if err := b.Add(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (b *Bucket) TokensRemaining(userID string) int {
	n := b.max - b.objects.Count(byUser(userID))
	if n < 0 {
		return 0
	}
	return n
}

// NextTokenAvailableAt reports when the user's oldest live token expires.
func (b *Bucket) NextTokenAvailableAt(userID string) (time.Time, bool) {
	held := b.objects.Filter(byUser(userID))
	if len(held) == 0 {
		return time.Time{}, false
	}
	return held[0].ExpiresAt(), true
}

// RemoveNewestToken gives back the most recently spent token of the user.
func (b *Bucket) RemoveNewestToken(userID string) bool {
	held := b.objects.Filter(byUser(userID))
	if len(held) == 0 {
		return false
	}
	return b.objects.Remove(held[len(held)-1])
}

// Stats returns the live token count per user.
func (b *Bucket) Stats() map[string]int {
	out := make(map[string]int)
	for _, t := range b.objects.Members() {
		out[t.UserID]++
	}
	return out
}

func (b *Bucket) Now() time.Time {
	return b.objects.Now()
}

func (b *Bucket) Run(ctx context.Context) error {
	return b.objects.Run(ctx)
}

func byUser(userID string) func(*Token) bool {
	return func(t *Token) bool { return t.UserID == userID }
}
