package telegram

import (
	"context"

	"github.com/Vovarama1992/relay_bot/internal/bot"
)

// Handler is the inbound pipeline the adapter feeds.
type Handler interface {
	HandleInbound(ctx context.Context, ev bot.Event) []bot.Action
}
