package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ReminderLead — за сколько до начала сессии отправляется напоминание.
	ReminderLead = 10 * time.Minute

	// LookaheadWindow — горизонт, в котором диспетчер ищет due-напоминания.
	// Совпадает с ReminderLead, поэтому диспетчер должен запускаться
	// не реже, чем раз в LookaheadWindow.
	LookaheadWindow = 10 * time.Minute
)

// ReminderTime вычисляет момент напоминания: date+start − ReminderLead.
func ReminderTime(date Date, start TimeOfDay, loc *time.Location) time.Time {
	return date.At(start, loc).Add(-ReminderLead).UTC()
}

// Notification — запись о запланированном email-напоминании.
//
// Принадлежит QuietBlock (1:1). ScheduledTime меняется только при
// изменении даты/времени quiet block, и тогда статус сбрасывается в Pending.
// Финальные статусы (Sent, Failed) выставляет только диспетчер.
type Notification struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// QuietBlockID — владеющий quiet block.
	QuietBlockID uuid.UUID `json:"quiet_block_id"`

	// UserID — получатель (profiles.id).
	UserID uuid.UUID `json:"user_id"`

	// ScheduledTime — момент отправки (UTC).
	ScheduledTime time.Time `json:"scheduled_time"`

	// Status — текущий статус.
	Status NotificationStatus `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNotification создаёт pending-напоминание для quiet block.
func NewNotification(block *QuietBlock, scheduled, now time.Time) *Notification {
	return &Notification{
		ID:            uuid.New(),
		QuietBlockID:  block.ID,
		UserID:        block.UserID,
		ScheduledTime: scheduled.UTC(),
		Status:        Pending(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Reschedule переносит напоминание и сбрасывает статус в Pending,
// даже если письмо уже было отправлено или упало.
func (n *Notification) Reschedule(scheduled, now time.Time) {
	n.ScheduledTime = scheduled.UTC()
	n.Status = Pending()
	n.UpdatedAt = now
}

// MarkSent переводит напоминание в Sent.
func (n *Notification) MarkSent(now time.Time) {
	n.Status = Sent(now)
	n.UpdatedAt = now
}

// MarkFailed переводит напоминание в Failed.
func (n *Notification) MarkFailed(detail string, now time.Time) {
	n.Status = Failed(detail)
	n.UpdatedAt = now
}

// InWindow проверяет, попадает ли напоминание в окно [now, now+LookaheadWindow].
func (n *Notification) InWindow(now time.Time) bool {
	end := now.Add(LookaheadWindow)
	return !n.ScheduledTime.Before(now) && !n.ScheduledTime.After(end)
}

// DueNotification — захваченное диспетчером напоминание вместе
// с quiet block и профилем владельца. Block или Profile равны nil,
// если связанная запись отсутствует.
type DueNotification struct {
	Notification
	Block   *QuietBlock
	Profile *Profile
}
