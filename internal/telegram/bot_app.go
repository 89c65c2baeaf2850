package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Vovarama1992/relay_bot/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type BotApp struct {
	api     *tgbotapi.BotAPI
	handler Handler
	self    bot.Identity
	log     *zap.Logger

	wg sync.WaitGroup
}

func NewBotApp(api *tgbotapi.BotAPI, handler Handler, log *zap.Logger) *BotApp {
	if log == nil {
		log = zap.NewNop()
	}
	return &BotApp{
		api:     api,
		handler: handler,
		self:    Identity(api),
		log:     log.With(zap.String("bot", api.Self.UserName)),
	}
}

// Run polls updates until ctx is done, then waits for in-flight handlers.
// Handlers run to completion on shutdown.
func (app *BotApp) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := app.api.GetUpdatesChan(u)
	app.log.Info("polling started")

	// ====== main loop ======
	for {
		select {
		case <-ctx.Done():
			app.api.StopReceivingUpdates()
			app.wg.Wait()
			app.log.Info("polling stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				app.wg.Wait()
				return fmt.Errorf("telegram: updates channel closed")
			}
			ev, ok := ToEvent(update.Message)
			if !ok {
				continue
			}
			app.wg.Add(1)
			go func() {
				defer app.wg.Done()
				app.dispatch(context.WithoutCancel(ctx), update.UpdateID, ev)
			}()
		}
	}
}

func (app *BotApp) dispatch(ctx context.Context, updateID int, ev bot.Event) {
	defer func() {
		if r := recover(); r != nil {
			app.log.Error("handler panic", zap.String("event_id", ev.ID), zap.Any("panic", r))
		}
	}()

	app.log.Debug("update received",
		zap.Int("update_id", updateID),
		zap.String("event_id", ev.ID),
		zap.String("chat", ev.ChannelID),
		zap.String("from", ev.AuthorID),
	)

	// typing indicator for messages that will get an answer
	if kind := bot.Classify(app.self, ev); kind == bot.AtMention || kind == bot.DirectMessage {
		if chatID, err := strconv.ParseInt(ev.ChannelID, 10, 64); err == nil {
			_, _ = app.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
		}
	}

	app.Execute(ctx, app.handler.HandleInbound(ctx, ev))
}
