package error_notificator

import (
	"context"

	"go.uber.org/zap"
)

// Service reports errors to admins without ever failing the caller.
type Service struct {
	infra Notificator
	log   *zap.Logger
}

func NewService(infra Notificator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{infra: infra, log: log}
}

func (s *Service) Notify(ctx context.Context, err error, details string) {
	if notifyErr := s.infra.Notify(ctx, err, details); notifyErr != nil {
		s.log.Warn("admin notification failed", zap.Error(notifyErr))
	}
}
