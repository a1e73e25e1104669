package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/dispatcher"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/quietblock"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// Profiles — хранилище профилей.
type Profiles interface {
	Upsert(ctx context.Context, p *domain.Profile) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// Notifications — чтение напоминаний.
type Notifications interface {
	List(ctx context.Context, filter repo.NotificationFilter) ([]domain.Notification, error)
}

// Dispatcher выполняет один запуск рассылки.
type Dispatcher interface {
	Run(ctx context.Context) (dispatcher.Report, error)
}

// Mailer отправляет письма.
type Mailer interface {
	SendReminder(ctx context.Context, data email.ReminderData) email.Result
	SendWelcome(ctx context.Context, to, name string) email.Result
}

// WelcomeQueue ставит приветственное письмо в очередь. Реализуется *mq.Publisher.
type WelcomeQueue interface {
	PublishWelcomeRequested(ctx context.Context, payload mq.WelcomePayload) error
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	blocks        *quietblock.Service
	profiles      Profiles
	notifications Notifications
	dispatcher    Dispatcher
	mailer        Mailer
	welcome       WelcomeQueue
	store         Pinger
	jwtSecret     []byte
	cronSecret    string
	logger        *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	QuietBlocks   *quietblock.Service
	Profiles      Profiles
	Notifications Notifications
	Dispatcher    Dispatcher
	Mailer        Mailer
	WelcomeQueue  WelcomeQueue // опционально; без него письмо отправляется сразу
	Store         Pinger       // опционально, для /healthz
	JWTSecret     string
	CronSecret    string
	Logger        *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		blocks:        cfg.QuietBlocks,
		profiles:      cfg.Profiles,
		notifications: cfg.Notifications,
		dispatcher:    cfg.Dispatcher,
		mailer:        cfg.Mailer,
		welcome:       cfg.WelcomeQueue,
		store:         cfg.Store,
		jwtSecret:     []byte(cfg.JWTSecret),
		cronSecret:    cfg.CronSecret,
		logger:        cfg.Logger,
	}
	if h.logger == nil {
		h.logger = telemetry.Discard()
	}
	return h
}

// loggerFrom возвращает логгер запроса, положенный Logging,
// а вне цепочки middleware — логгер Handler.
func (h *Handler) loggerFrom(ctx context.Context) *slog.Logger {
	if _, ok := ctx.Value(telemetry.CtxLogger).(*slog.Logger); ok {
		return telemetry.FromContext(ctx)
	}
	return h.logger
}

// sendWelcome ставит приветственное письмо в очередь, а без очереди
// (или при ошибке публикации) отправляет его сразу. Ошибки только логируются.
func (h *Handler) sendWelcome(ctx context.Context, userID uuid.UUID, to, name string) {
	logger := h.loggerFrom(ctx)
	if UserID(ctx) != userID {
		logger = telemetry.WithUserID(logger, userID.String())
	}

	if h.welcome != nil {
		err := h.welcome.PublishWelcomeRequested(ctx, mq.WelcomePayload{
			UserID: userID,
			Email:  to,
			Name:   name,
		})
		if err == nil {
			logger.Debug("welcome email queued")
			return
		}
		logger.Warn("failed to queue welcome email, sending inline", "error", err)
	}

	if h.mailer == nil {
		logger.Warn("mailer not configured, welcome email dropped")
		return
	}
	if res := h.mailer.SendWelcome(ctx, to, name); !res.Success {
		logger.Warn("welcome email failed", "error", res.ErrorMessage())
	}
}
