package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// WelcomeMailer отправляет приветственное письмо.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) email.Result
}

// WelcomeHandler обрабатывает сообщения очереди emails.welcome.
// Ошибка провайдера возвращается, чтобы Consumer повторил доставку.
func WelcomeHandler(mailer WelcomeMailer, logger *slog.Logger) mq.Handler {
	if logger == nil {
		logger = telemetry.Discard()
	}

	return func(ctx context.Context, d *mq.Delivery) error {
		if d.Message.Type != mq.MessageTypeWelcomeRequested {
			logger.Warn("unexpected message type on welcome queue", "type", d.Message.Type)
			return nil
		}

		payload, err := mq.ParsePayload[mq.WelcomePayload](&d.Message)
		if err != nil {
			return fmt.Errorf("parse welcome payload: %w", err)
		}
		if payload.Email == "" {
			logger.Warn("welcome message without recipient", "message_id", d.Message.ID)
			return nil
		}

		res := mailer.SendWelcome(ctx, payload.Email, payload.Name)
		if !res.Success {
			return errors.New(res.ErrorMessage())
		}

		telemetry.WithUserID(logger, payload.UserID.String()).Info("welcome email sent", "provider_id", res.Data.ID)
		return nil
	}
}
