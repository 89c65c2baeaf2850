package error_notificator

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failTo map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, msg)
	if f.failTo[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("forbidden")
	}
	return tgbotapi.Message{}, nil
}

func TestInfra_NotifiesEveryAdmin(t *testing.T) {
	s := &fakeSender{}
	infra := NewInfra(s, "relaybot", []int64{1, 2})

	require.NoError(t, infra.Notify(context.Background(), errors.New("boom"), "completion failed"))
	require.Len(t, s.sent, 2)
	require.Equal(t, int64(2), s.sent[1].ChatID)
	require.Contains(t, s.sent[0].Text, "@relaybot")
	require.Contains(t, s.sent[0].Text, "boom")
	require.Contains(t, s.sent[0].Text, "completion failed")
}

func TestInfra_CombinesFailures(t *testing.T) {
	s := &fakeSender{failTo: map[int64]bool{1: true, 3: true}}
	infra := NewInfra(s, "relaybot", []int64{1, 2, 3})

	err := infra.Notify(context.Background(), errors.New("boom"), "")
	require.Len(t, multierr.Errors(err), 2)
	require.Len(t, s.sent, 3)
}

func TestInfra_TruncatesLongReports(t *testing.T) {
	s := &fakeSender{}
	infra := NewInfra(s, "relaybot", []int64{1})

	require.NoError(t, infra.Notify(context.Background(), errors.New("boom"), strings.Repeat("x", 10000)))
	require.Len(t, []rune(s.sent[0].Text), maxReportLength)
}

func TestInfra_NoAdmins(t *testing.T) {
	s := &fakeSender{}
	require.NoError(t, NewInfra(s, "relaybot", nil).Notify(context.Background(), errors.New("boom"), ""))
	require.Empty(t, s.sent)
}

func TestService_SwallowsDeliveryErrors(t *testing.T) {
	s := &fakeSender{failTo: map[int64]bool{1: true}}
	svc := NewService(NewInfra(s, "relaybot", []int64{1}), nil)

	svc.Notify(context.Background(), errors.New("boom"), "")
	require.Len(t, s.sent, 1)
}
