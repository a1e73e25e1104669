package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/QuietHours/internal/clock"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// StaleDetail — error_message записей, чья обработка оборвалась.
const StaleDetail = "dispatch interrupted"

// DefaultClaimTTL — сколько запись может оставаться в processing,
// прежде чем следующий запуск сочтёт её зависшей.
const DefaultClaimTTL = 30 * time.Minute

// Store — хранилище напоминаний в части, нужной диспетчеру.
type Store interface {
	ClaimDue(ctx context.Context, now, until time.Time, limit int) ([]domain.DueNotification, error)
	Resolve(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, at time.Time) error
	FailStale(ctx context.Context, claimedBefore time.Time, detail string, at time.Time) (int64, error)
}

// Mailer отправляет напоминание.
type Mailer interface {
	SendReminder(ctx context.Context, data email.ReminderData) email.Result
}

// Events публикует результаты обработки. Реализуется *mq.Publisher.
type Events interface {
	PublishNotificationOutcome(ctx context.Context, payload mq.NotificationOutcomePayload) error
}

// Dispatcher — обработчик due-напоминаний.
type Dispatcher struct {
	store       Store
	mailer      Mailer
	events      Events
	clock       clock.Clock
	logger      *slog.Logger
	batchSize   int
	concurrency int
	claimTTL    time.Duration
}

// Config — конфигурация Dispatcher.
type Config struct {
	Store       Store
	Mailer      Mailer
	Events      Events // опционально
	Clock       clock.Clock
	Logger      *slog.Logger
	BatchSize   int           // записей за запуск (default: 500)
	Concurrency int           // параллельных отправок (default: 1)
	ClaimTTL    time.Duration // default: DefaultClaimTTL
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		store:       cfg.Store,
		mailer:      cfg.Mailer,
		events:      cfg.Events,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		claimTTL:    cfg.ClaimTTL,
	}
	if d.clock == nil {
		d.clock = clock.System{}
	}
	if d.logger == nil {
		d.logger = telemetry.Discard()
	}
	if d.batchSize <= 0 {
		d.batchSize = 500
	}
	if d.concurrency <= 0 {
		d.concurrency = 1
	}
	if d.claimTTL <= 0 {
		d.claimTTL = DefaultClaimTTL
	}
	return d
}

// Report — итоги одного запуска.
type Report struct {
	// Total — число захваченных записей, включая пропущенные.
	Total    int `json:"total"`
	Success  int `json:"success"`
	Failures int `json:"failures"`

	// Skipped — записи без quiet block или профиля. Не входят
	// ни в Success, ни в Failures.
	Skipped int `json:"skipped"`

	// Stale — зависшие записи, помеченные failed в начале запуска.
	Stale int64 `json:"stale"`
}

// Run выполняет один запуск диспетчера.
// Ошибка возвращается, только если не удалось захватить записи.
func (d *Dispatcher) Run(ctx context.Context) (Report, error) {
	started := time.Now()
	defer func() {
		telemetry.DispatchDuration.Observe(time.Since(started).Seconds())
	}()

	var report Report
	now := d.clock.Now()

	stale, err := d.store.FailStale(ctx, now.Add(-d.claimTTL), StaleDetail, now)
	if err != nil {
		d.logger.Warn("failed to expire stale claims", "error", err)
	} else if stale > 0 {
		d.logger.Warn("expired stale claims", "count", stale)
		report.Stale = stale
	}

	due, err := d.store.ClaimDue(ctx, now, now.Add(domain.LookaheadWindow), d.batchSize)
	if err != nil {
		telemetry.DispatchRuns.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("claim due notifications: %w", err)
	}

	if len(due) == 0 {
		telemetry.DispatchRuns.WithLabelValues("empty").Inc()
		d.logger.Debug("no notifications to send")
		return report, nil
	}

	d.logger.Debug("claimed due notifications", "count", len(due))

	// Отправки начинаются только в пределах 4/5 ClaimTTL от захвата,
	// поэтому FailStale другого запуска не трогает живые записи.
	sendCtx, cancel := context.WithTimeout(ctx, d.claimTTL*4/5)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.concurrency)

	for i := range due {
		item := &due[i]
		g.Go(func() error {
			outcome := d.process(ctx, sendCtx, item, now)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case telemetry.OutcomeSent:
				report.Success++
			case telemetry.OutcomeFailed:
				report.Failures++
			default:
				report.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Total = len(due)
	telemetry.DispatchRuns.WithLabelValues("ok").Inc()

	d.logger.Info("dispatch run completed",
		"total", report.Total,
		"success", report.Success,
		"failures", report.Failures,
		"skipped", report.Skipped,
		"duration", time.Since(started),
	)

	return report, nil
}

// process обрабатывает одну захваченную запись и возвращает исход
// (telemetry.OutcomeSent, OutcomeFailed или OutcomeSkipped).
// Письмо отправляется с sendCtx; записи в хранилище идут через ctx.
func (d *Dispatcher) process(ctx, sendCtx context.Context, item *domain.DueNotification, now time.Time) (outcome string) {
	logger := telemetry.WithNotificationID(d.logger, item.ID.String())

	defer func() {
		if rec := recover(); rec != nil {
			detail := fmt.Sprint(rec)
			logger.Error("panic while processing notification", "panic", detail)
			item.MarkFailed(detail, now)
			d.finish(ctx, item, logger)
			outcome = telemetry.OutcomeFailed
		}
		telemetry.Notifications.WithLabelValues(outcome).Inc()
	}()

	if !item.InWindow(now) {
		logger.Warn("claimed notification outside lookahead window, releasing",
			"scheduled_time", item.ScheduledTime,
		)
		return d.release(ctx, item, now, logger)
	}

	if item.Block == nil || item.Profile == nil {
		logger.Warn("quiet block or profile missing, releasing notification",
			"quiet_block_id", item.QuietBlockID,
			"user_id", item.UserID,
			"has_block", item.Block != nil,
			"has_profile", item.Profile != nil,
		)
		return d.release(ctx, item, now, logger)
	}

	if err := sendCtx.Err(); err != nil {
		logger.Warn("dispatch run out of time, releasing notification", "error", err)
		return d.release(ctx, item, now, logger)
	}

	block, profile := item.Block, item.Profile
	res := d.mailer.SendReminder(sendCtx, email.ReminderData{
		To:          profile.Email,
		UserName:    profile.DisplayName(),
		Title:       block.Title,
		Description: block.Description,
		Date:        block.Date.Long(),
		StartTime:   block.StartTime.Clock12(),
		EndTime:     block.EndTime.Clock12(),
	})

	if res.Success {
		item.MarkSent(now)
		d.finish(ctx, item, logger)
		logger.Info("reminder sent", "quiet_block_id", block.ID, "provider_id", res.Data.ID)
		return telemetry.OutcomeSent
	}

	item.MarkFailed(res.ErrorMessage(), now)
	d.finish(ctx, item, logger)
	logger.Warn("reminder failed", "quiet_block_id", block.ID, "error", item.Status.Detail())
	return telemetry.OutcomeFailed
}

// release возвращает запись в pending без отправки.
func (d *Dispatcher) release(ctx context.Context, item *domain.DueNotification, now time.Time, logger *slog.Logger) string {
	item.Status = domain.Pending()
	item.UpdatedAt = now
	d.finish(ctx, item, logger)
	return telemetry.OutcomeSkipped
}

// finish сохраняет текущий статус записи и публикует финальный исход.
// Ошибка записи не меняет исход письма: оно уже отправлено (или нет),
// повторять его нельзя.
func (d *Dispatcher) finish(ctx context.Context, item *domain.DueNotification, logger *slog.Logger) {
	status := item.Status
	err := d.store.Resolve(ctx, item.ID, status, item.UpdatedAt)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrInvalidState):
		// quiet block перенесли или удалили во время отправки
		logger.Info("notification changed during dispatch, outcome not recorded", "status", status)
	default:
		logger.Error("failed to record notification outcome", "status", status, "error", err)
	}

	if status.Kind().IsTerminal() {
		d.publish(ctx, item, logger)
	}
}

func (d *Dispatcher) publish(ctx context.Context, item *domain.DueNotification, logger *slog.Logger) {
	if d.events == nil {
		return
	}

	err := d.events.PublishNotificationOutcome(ctx, mq.NotificationOutcomePayload{
		NotificationID: item.ID,
		QuietBlockID:   item.QuietBlockID,
		UserID:         item.UserID,
		Status:         item.Status.String(),
		Error:          item.Status.Detail(),
		At:             item.UpdatedAt,
	})
	if err != nil {
		logger.Warn("failed to publish notification outcome", "error", err)
	}
}
