package dispatcher

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/QuietHours/internal/domain"
)

// cronParser — пятипольные выражения и дескрипторы (@every 5m, @hourly).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ErrTriggerGap — расписание оставляет промежутки длиннее окна диспетчера,
// и часть напоминаний никогда не попадёт в выборку.
var ErrTriggerGap = errors.New("dispatch schedule gap exceeds lookahead window")

// gapHorizon — на каком отрезке проверяются промежутки расписания.
const gapHorizon = 8 * 24 * time.Hour

// ValidateSchedule проверяет cron-выражение и то, что между соседними
// запусками не бывает больше domain.LookaheadWindow.
func ValidateSchedule(expr string) error {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid dispatch schedule %q: %w", expr, err)
	}

	gap := maxGap(schedule, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), gapHorizon)
	if gap > domain.LookaheadWindow {
		return fmt.Errorf("%w: %q leaves up to %s between runs, max %s",
			ErrTriggerGap, expr, gap, domain.LookaheadWindow)
	}
	return nil
}

// maxGap возвращает наибольший промежуток между запусками на [from, from+horizon].
func maxGap(schedule cron.Schedule, from time.Time, horizon time.Duration) time.Duration {
	end := from.Add(horizon)
	prev := schedule.Next(from)
	if prev.IsZero() || prev.After(end) {
		return horizon
	}

	var gap time.Duration
	for prev.Before(end) {
		next := schedule.Next(prev)
		if next.IsZero() {
			return horizon
		}
		gap = max(gap, next.Sub(prev))
		prev = next
	}
	return gap
}

// NewCron создаёт cron-планировщик, вызывающий job по расписанию expr (UTC).
// Запуск пропускается, если предыдущий ещё не завершился; panic в job
// перехватывается.
func NewCron(expr string, logger *slog.Logger, job func()) (*cron.Cron, error) {
	if err := ValidateSchedule(expr); err != nil {
		return nil, err
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(expr, job); err != nil {
		return nil, fmt.Errorf("add dispatch job: %w", err)
	}
	return c, nil
}

// cronLogger адаптирует slog к интерфейсу cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
