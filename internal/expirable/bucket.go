package expirable

import (
	"context"
	"errors"
	"sync"
	"time"
)

const DefaultPollInterval = time.Second

var (
	ErrAlreadyBucketed = errors.New("expirable: object already belongs to a bucket")
	ErrUnstamped       = errors.New("expirable: object has no creation time")
)

// Bucket owns a set of expirable objects in insertion order and drops each one
// once its TTL runs out. Reads never return an expired member; physical removal
// happens on the next sweep.
type Bucket[T Expirable] struct {
	lifespan     time.Duration
	pollInterval time.Duration
	now          func() time.Time
	onExpire     []func(T)

	mu      sync.Mutex
	members []T
}

type Option[T Expirable] func(*Bucket[T])

func WithClock[T Expirable](now func() time.Time) Option[T] {
	return func(b *Bucket[T]) {
		if now != nil {
			b.now = now
		}
	}
}

func WithPollInterval[T Expirable](d time.Duration) Option[T] {
	return func(b *Bucket[T]) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithOnExpire registers a listener fired once per member removed by a sweep.
func WithOnExpire[T Expirable](fn func(T)) Option[T] {
	return func(b *Bucket[T]) {
		if fn != nil {
			b.onExpire = append(b.onExpire, fn)
		}
	}
}

func NewBucket[T Expirable](lifespan time.Duration, opts ...Option[T]) *Bucket[T] {
	b := &Bucket[T]{
		lifespan:     lifespan,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bucket[T]) Lifespan() time.Duration {
	return b.lifespan
}

func (b *Bucket[T]) Now() time.Time {
	return b.now()
}

func (b *Bucket[T]) Add(obj T) error {
	return b.AddIf(obj, nil)
}

// AddIf runs admit over the live members under the bucket lock and inserts obj
// only when admit returns nil. Check and insert are one atomic step.
func (b *Bucket[T]) AddIf(obj T, admit func(live []T) error) error {
	if obj.CreatedAt().IsZero() {
		return ErrUnstamped
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if admit != nil {
		if err := admit(b.liveLocked(b.now())); err != nil {
			return err
		}
	}

	if !obj.SetLifespan(b.lifespan) {
		return ErrAlreadyBucketed
	}
	b.members = append(b.members, obj)
	return nil
}

// Members returns a snapshot of the live members in insertion order.
func (b *Bucket[T]) Members() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveLocked(b.now())
}

func (b *Bucket[T]) Filter(keep func(T) bool) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var out []T
	for _, m := range b.members {
		if !m.Expired(now) && keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (b *Bucket[T]) Count(match func(T) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	n := 0
	for _, m := range b.members {
		if !m.Expired(now) && (match == nil || match(m)) {
			n++
		}
	}
	return n
}

func (b *Bucket[T]) Len() int {
	return b.Count(nil)
}

// Remove drops obj regardless of its TTL. Listeners are not fired.
func (b *Bucket[T]) Remove(obj T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, m := range b.members {
		if any(m) == any(obj) {
			b.members = append(b.members[:i], b.members[i+1:]...)
			return true
		}
	}
	return false
}

// Sweep removes every expired member and notifies the listeners.
func (b *Bucket[T]) Sweep() []T {
	b.mu.Lock()
	now := b.now()
	kept := b.members[:0]
	var expired []T
	for _, m := range b.members {
		if m.Expired(now) {
			expired = append(expired, m)
			continue
		}
		kept = append(kept, m)
	}
	// clear the tail so dropped members can be collected
	var zero T
	for i := len(kept); i < len(b.members); i++ {
		b.members[i] = zero
	}
	b.members = kept
	listeners := b.onExpire
	b.mu.Unlock()

	for _, m := range expired {
		for _, fn := range listeners {
			fn(m)
		}
	}
	return expired
}

// Run sweeps on every poll tick until ctx is done.
func (b *Bucket[T]) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Sweep()
		}
	}
}

func (b *Bucket[T]) liveLocked(now time.Time) []T {
	out := make([]T, 0, len(b.members))
	for _, m := range b.members {
		if !m.Expired(now) {
			out = append(out, m)
		}
	}
	return out
}
