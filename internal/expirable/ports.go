package expirable

import "time"

// Expirable is anything a Bucket can own. Domain types get it by embedding Object.
type Expirable interface {
	CreatedAt() time.Time
	Lifespan() time.Duration
	SetLifespan(d time.Duration) bool
	ExpiresAt() time.Time
	RemainingTTL(now time.Time) time.Duration
	Expired(now time.Time) bool
}
