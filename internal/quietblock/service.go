// Package quietblock — управление quiet blocks и выводимыми из них
// email-напоминаниями.
//
// Каждое создание или перенос сессии пересчитывает момент напоминания
// (начало − 10 минут) и сохраняет запись email_notifications. Ошибка
// записи напоминания не откатывает сохранённую сессию: она возвращается
// в Outcome.ReminderErr.
package quietblock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/clock"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

// Blocks — хранилище quiet blocks.
type Blocks interface {
	Create(ctx context.Context, b *domain.QuietBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QuietBlock, error)
	List(ctx context.Context, filter repo.QuietBlockFilter) ([]domain.QuietBlock, error)
	Update(ctx context.Context, b *domain.QuietBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifications — хранилище напоминаний.
type Notifications interface {
	GetByQuietBlock(ctx context.Context, blockID uuid.UUID) (*domain.Notification, error)
	Upsert(ctx context.Context, n *domain.Notification) error
}

// Service — сервис quiet blocks.
type Service struct {
	blocks        Blocks
	notifications Notifications
	clock         clock.Clock
	loc           *time.Location
	logger        *slog.Logger
}

// Config — конфигурация Service.
type Config struct {
	Blocks        Blocks
	Notifications Notifications
	Clock         clock.Clock    // default: clock.System
	Location      *time.Location // часовой пояс дат сессий, default: UTC
	Logger        *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) *Service {
	s := &Service{
		blocks:        cfg.Blocks,
		notifications: cfg.Notifications,
		clock:         cfg.Clock,
		loc:           cfg.Location,
		logger:        cfg.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = telemetry.Discard()
	}
	return s
}

// Outcome — результат операции над quiet block.
type Outcome struct {
	Block *domain.QuietBlock

	// Notification — текущее напоминание; nil, если его нет
	// (сессия уже началась или напоминание не удалось сохранить).
	Notification *domain.Notification

	// ReminderErr — ошибка сохранения напоминания. Сессия при этом сохранена.
	ReminderErr error
}

// CreateInput — поля новой сессии.
type CreateInput struct {
	Title             string
	Description       string
	Date              domain.Date
	StartTime         domain.TimeOfDay
	EndTime           domain.TimeOfDay
	IsRecurring       bool
	RecurrencePattern string
}

// UpdateInput — частичное изменение сессии. nil — поле не меняется.
type UpdateInput struct {
	Title             *string
	Description       *string
	Date              *domain.Date
	StartTime         *domain.TimeOfDay
	EndTime           *domain.TimeOfDay
	IsRecurring       *bool
	RecurrencePattern *string
	IsActive          *bool
}

// Create создаёт сессию пользователя и, если напоминание ещё в будущем,
// pending-напоминание для неё. Сессия должна начинаться позже now.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*Outcome, error) {
	now := s.clock.Now()

	block := &domain.QuietBlock{
		ID:                uuid.New(),
		UserID:            userID,
		Title:             in.Title,
		Description:       in.Description,
		Date:              in.Date,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		IsRecurring:       in.IsRecurring,
		RecurrencePattern: in.RecurrencePattern,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	block.Normalize()
	if err := block.Validate(); err != nil {
		return nil, err
	}
	if !block.StartsAt(s.loc).After(now) {
		return nil, &domain.ValidationError{Field: "start_time", Message: "start time must be in the future"}
	}

	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, fmt.Errorf("create quiet block: %w", err)
	}

	logger := telemetry.WithQuietBlockID(s.logger, block.ID.String())
	logger.Info("quiet block created", "user_id", userID, "date", block.Date, "start_time", block.StartTime)

	out := &Outcome{Block: block}

	scheduled := block.ReminderTime(s.loc)
	if !scheduled.After(now) {
		logger.Debug("reminder time already passed, notification skipped", "scheduled_time", scheduled)
		return out, nil
	}

	n := domain.NewNotification(block, scheduled, now)
	if err := s.notifications.Upsert(ctx, n); err != nil {
		logger.Error("failed to schedule reminder", "error", err)
		out.ReminderErr = fmt.Errorf("schedule reminder: %w", err)
		return out, nil
	}

	logger.Debug("reminder scheduled", "notification_id", n.ID, "scheduled_time", n.ScheduledTime)
	out.Notification = n
	return out, nil
}

// Get возвращает сессию пользователя вместе с напоминанием.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Outcome, error) {
	block, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Block: block}
	n, err := s.notifications.GetByQuietBlock(ctx, id)
	switch {
	case err == nil:
		out.Notification = n
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return out, nil
}

// List возвращает сессии пользователя по дате и времени начала.
func (s *Service) List(ctx context.Context, filter repo.QuietBlockFilter) ([]domain.QuietBlock, error) {
	blocks, err := s.blocks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quiet blocks: %w", err)
	}
	return blocks, nil
}

// Update применяет частичное изменение. Если изменилась дата или время
// начала, напоминание пересчитывается и сбрасывается в pending,
// даже если оно уже было отправлено.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*Outcome, error) {
	prev, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next := *prev
	in.apply(&next)
	next.Normalize()
	if err := next.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	next.UpdatedAt = now

	if err := s.blocks.Update(ctx, &next); err != nil {
		return nil, fmt.Errorf("update quiet block: %w", err)
	}

	logger := telemetry.WithQuietBlockID(s.logger, id.String())
	logger.Info("quiet block updated", "user_id", userID)

	out := &Outcome{Block: &next}

	if !next.ScheduleChanged(prev) {
		n, err := s.notifications.GetByQuietBlock(ctx, id)
		if err == nil {
			out.Notification = n
		}
		return out, nil
	}

	n, err := s.reschedule(ctx, &next, now)
	if err != nil {
		logger.Error("failed to reschedule reminder", "error", err)
		out.ReminderErr = fmt.Errorf("reschedule reminder: %w", err)
		return out, nil
	}
	out.Notification = n
	return out, nil
}

// Deactivate помечает сессию неактивной (мягкое удаление).
// Напоминание неактивной сессии не отправляется.
func (s *Service) Deactivate(ctx context.Context, userID, id uuid.UUID) (*Outcome, error) {
	inactive := false
	return s.Update(ctx, userID, id, UpdateInput{IsActive: &inactive})
}

// Delete удаляет сессию вместе с напоминанием.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.blocks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quiet block: %w", err)
	}

	s.logger.Info("quiet block deleted", "quiet_block_id", id, "user_id", userID)
	return nil
}

// reschedule переносит напоминание на новое время начала.
// Отсутствующая запись создаётся, только если новое время ещё впереди.
func (s *Service) reschedule(ctx context.Context, block *domain.QuietBlock, now time.Time) (*domain.Notification, error) {
	scheduled := block.ReminderTime(s.loc)

	n, err := s.notifications.GetByQuietBlock(ctx, block.ID)
	switch {
	case err == nil:
		n.Reschedule(scheduled, now)
	case errors.Is(err, repo.ErrNotFound):
		if !scheduled.After(now) {
			return nil, nil
		}
		n = domain.NewNotification(block, scheduled, now)
	default:
		return nil, err
	}

	if err := s.notifications.Upsert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// owned возвращает сессию, если она принадлежит userID.
// Чужая сессия неотличима от несуществующей.
func (s *Service) owned(ctx context.Context, userID, id uuid.UUID) (*domain.QuietBlock, error) {
	block, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get quiet block: %w", err)
	}
	if block.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return block, nil
}

func (in UpdateInput) apply(b *domain.QuietBlock) {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Date != nil {
		b.Date = *in.Date
	}
	if in.StartTime != nil {
		b.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		b.EndTime = *in.EndTime
	}
	if in.IsRecurring != nil {
		b.IsRecurring = *in.IsRecurring
	}
	if in.RecurrencePattern != nil {
		b.RecurrencePattern = *in.RecurrencePattern
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}
