package delivery

import "time"

type HistoryStats interface {
	Len() int
	Retention() time.Duration
}

type TokenStats interface {
	Stats() map[string]int
	MaxTokensPerUser() int
	TokensRemaining(userID string) int
	NextTokenAvailableAt(userID string) (time.Time, bool)
}
