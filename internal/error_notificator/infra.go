package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/multierr"
)

// Telegram messages are capped at 4096 characters
const maxReportLength = 4000

type Infra struct {
	sender Sender
	admins []int64
	botTag string
}

func NewInfra(sender Sender, botTag string, adminChatIDs []int64) *Infra {
	return &Infra{sender: sender, botTag: botTag, admins: adminChatIDs}
}

// Notify tries every admin chat and returns the combined delivery errors.
func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	if len(i.admins) == 0 {
		return nil
	}

	text := fmt.Sprintf("❗ Error in @%s\n\nError: %v\n\nDetails: %s", i.botTag, err, details)
	if r := []rune(text); len(r) > maxReportLength {
		text = string(r[:maxReportLength])
	}

	var errs error
	for _, chatID := range i.admins {
		if _, sendErr := i.sender.Send(tgbotapi.NewMessage(chatID, text)); sendErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify chat %d: %w", chatID, sendErr))
		}
	}
	return errs
}
