// Package email отправляет письма QuietHours: приветствие новому
// пользователю и напоминание за 10 минут до quiet block.
//
// Sender рендерит HTML-шаблон и передаёт письмо Provider.
// Ошибки провайдера (включая panic) не выходят за границу Sender:
// результат всегда возвращается как Result. Повторов нет.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// Message — готовое к отправке письмо.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Provider — транзакционный email-сервис.
// Send возвращает идентификатор письма у провайдера.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Delivery — ответ провайдера на успешную отправку.
type Delivery struct {
	ID string `json:"id"`
}

// Result — итог отправки: либо Data, либо Err.
type Result struct {
	Success bool
	Data    *Delivery
	Err     error
}

// ErrorMessage возвращает текст ошибки для сохранения в статусе напоминания.
func (r Result) ErrorMessage() string {
	if r.Err == nil || r.Err.Error() == "" {
		return domain.UnknownError
	}
	return r.Err.Error()
}

// ErrNoRecipient — у письма нет адресата.
var ErrNoRecipient = errors.New("recipient email is required")

// Sender — отправитель писем QuietHours.
type Sender struct {
	provider Provider
	from     string
	appURL   string
	logger   *slog.Logger
}

// SenderConfig — конфигурация Sender.
type SenderConfig struct {
	Provider Provider
	From     string // "Name <address>"
	AppURL   string // база ссылки на дашборд в приветствии
	Logger   *slog.Logger
}

// NewSender создаёт новый Sender.
func NewSender(cfg SenderConfig) *Sender {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	return &Sender{
		provider: cfg.Provider,
		from:     cfg.From,
		appURL:   strings.TrimRight(cfg.AppURL, "/"),
		logger:   logger,
	}
}

// SendReminder отправляет напоминание о предстоящей сессии.
func (s *Sender) SendReminder(ctx context.Context, data ReminderData) Result {
	if data.To == "" {
		return failed(ErrNoRecipient)
	}

	html, err := render("reminder.html", data)
	if err != nil {
		return failed(err)
	}

	return s.send(ctx, KindReminder, Message{
		From:    s.from,
		To:      []string{data.To},
		Subject: reminderSubject(data.Title),
		HTML:    html,
	})
}

// SendWelcome отправляет приветственное письмо.
// Пустое имя заменяется на domain.DefaultDisplayName.
func (s *Sender) SendWelcome(ctx context.Context, to, name string) Result {
	if to == "" {
		return failed(ErrNoRecipient)
	}
	if strings.TrimSpace(name) == "" {
		name = domain.DefaultDisplayName
	}

	html, err := render("welcome.html", welcomeData{
		Name:         name,
		DashboardURL: s.appURL + "/dashboard",
	})
	if err != nil {
		return failed(err)
	}

	return s.send(ctx, KindWelcome, Message{
		From:    s.from,
		To:      []string{to},
		Subject: welcomeSubject,
		HTML:    html,
	})
}

// send передаёт письмо провайдеру, перехватывая panic.
func (s *Sender) send(ctx context.Context, kind Kind, msg Message) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = failed(fmt.Errorf("email provider panic: %v", rec))
		}

		outcome := "ok"
		if !res.Success {
			outcome = "error"
			s.logger.Warn("email not sent", "template", kind, "error", res.ErrorMessage())
		} else {
			s.logger.Debug("email sent", "template", kind, "provider_id", res.Data.ID)
		}
		telemetry.Emails.WithLabelValues(string(kind), outcome).Inc()
	}()

	id, err := s.provider.Send(ctx, msg)
	if err != nil {
		return failed(err)
	}
	return Result{Success: true, Data: &Delivery{ID: id}}
}

func failed(err error) Result {
	return Result{Success: false, Err: err}
}
