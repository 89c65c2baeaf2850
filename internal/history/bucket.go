package history

import (
	"context"
	"time"

	"github.com/Vovarama1992/relay_bot/internal/expirable"
)

// Bucket holds the live turns of every conversation.
type Bucket struct {
	objects *expirable.Bucket[*Message]
}

type Option = expirable.Option[*Message]

func WithClock(now func() time.Time) Option {
	return expirable.WithClock[*Message](now)
}

func WithPollInterval(d time.Duration) Option {
	return expirable.WithPollInterval[*Message](d)
}

func WithOnExpire(fn func(*Message)) Option {
	return expirable.WithOnExpire(fn)
}

func NewBucket(retention time.Duration, opts ...Option) *Bucket {
	return &Bucket{objects: expirable.NewBucket[*Message](retention, opts...)}
}

func (b *Bucket) Add(msg *Message) error {
	return b.objects.Add(msg)
}

// Record stamps a new turn with the bucket clock and adds it.
func (b *Bucket) Record(key string, role Role, speaker, text string) (*Message, error) {
	msg := NewMessageAt(key, role, speaker, text, b.objects.Now())
	if err := b.objects.Add(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MessagesFor returns the live turns of one conversation in insertion order.
func (b *Bucket) MessagesFor(key string) []*Message {
	return b.objects.Filter(func(m *Message) bool {
		return m.ConversationKey == key
	})
}

func (b *Bucket) CountFor(key string) int {
	return b.objects.Count(func(m *Message) bool {
		return m.ConversationKey == key
	})
}

func (b *Bucket) Len() int {
	return b.objects.Len()
}

func (b *Bucket) Retention() time.Duration {
	return b.objects.Lifespan()
}

func (b *Bucket) Run(ctx context.Context) error {
	return b.objects.Run(ctx)
}
