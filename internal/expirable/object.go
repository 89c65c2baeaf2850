package expirable

import (
	"sync/atomic"
	"time"
)

// Object carries the creation time and the lifespan assigned by the owning bucket.
// Lifespan stays zero until a bucket sets it, and a zero lifespan never expires.
type Object struct {
	createdAt time.Time
	lifespan  atomic.Int64
}

func NewObject() Object {
	return NewObjectAt(time.Now())
}

func NewObjectAt(createdAt time.Time) Object {
	return Object{createdAt: createdAt}
}

func (o *Object) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Object) Lifespan() time.Duration {
	return time.Duration(o.lifespan.Load())
}

// SetLifespan assigns the lifespan once. Returns false if one was already set.
func (o *Object) SetLifespan(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	return o.lifespan.CompareAndSwap(0, int64(d))
}

func (o *Object) ExpiresAt() time.Time {
	return o.createdAt.Add(o.Lifespan())
}

func (o *Object) RemainingTTL(now time.Time) time.Duration {
	return o.ExpiresAt().Sub(now)
}

func (o *Object) Expired(now time.Time) bool {
	if o.Lifespan() <= 0 {
		return false
	}
	return o.RemainingTTL(now) <= 0
}
