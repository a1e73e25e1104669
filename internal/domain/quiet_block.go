package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Ограничения полей quiet block.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// QuietBlock — запланированная учебная сессия ("quiet block").
//
// Quiet block принадлежит пользователю и владеет ровно одним
// напоминанием (Notification), которое отправляется за 10 минут
// до начала. Удаление quiet block удаляет и напоминание.
type QuietBlock struct {
	// ID — уникальный идентификатор.
	ID uuid.UUID `json:"id"`

	// UserID — владелец (profiles.id).
	UserID uuid.UUID `json:"user_id"`

	// Title — название сессии, обязательно.
	Title string `json:"title"`

	// Description — необязательное описание.
	Description string `json:"description,omitempty"`

	// Date — календарный день сессии.
	Date Date `json:"date"`

	// StartTime и EndTime — время начала и конца в течение дня.
	// Инвариант: EndTime строго позже StartTime.
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`

	// IsRecurring и RecurrencePattern — признак и шаблон повторения.
	// Шаблон хранится как есть и пока не интерпретируется.
	IsRecurring       bool   `json:"is_recurring"`
	RecurrencePattern string `json:"recurrence_pattern,omitempty"`

	// IsActive — false означает мягкое удаление.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize обрезает пробелы в текстовых полях.
func (b *QuietBlock) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	b.RecurrencePattern = strings.TrimSpace(b.RecurrencePattern)
}

// Validate проверяет инварианты quiet block.
func (b *QuietBlock) Validate() error {
	if b.UserID == uuid.Nil {
		return invalid("user_id", "owner is required")
	}
	if b.Title == "" {
		return invalid("title", "title is required")
	}
	if utf8.RuneCountInString(b.Title) > MaxTitleLength {
		return invalid("title", "title must be less than 100 characters")
	}
	if utf8.RuneCountInString(b.Description) > MaxDescriptionLength {
		return invalid("description", "description must be less than 500 characters")
	}
	if b.Date.IsZero() {
		return invalid("date", "date is required")
	}
	if !b.StartTime.Before(b.EndTime) {
		return invalid("end_time", "end time must be after start time")
	}
	return nil
}

// StartsAt возвращает момент начала сессии в часовом поясе loc.
func (b *QuietBlock) StartsAt(loc *time.Location) time.Time {
	return b.Date.At(b.StartTime, loc)
}

// ReminderTime возвращает момент отправки напоминания.
func (b *QuietBlock) ReminderTime(loc *time.Location) time.Time {
	return ReminderTime(b.Date, b.StartTime, loc)
}

// ScheduleChanged сообщает, отличается ли дата или время начала от prev.
// Только такие изменения пересчитывают напоминание.
func (b *QuietBlock) ScheduleChanged(prev *QuietBlock) bool {
	return b.Date != prev.Date || b.StartTime != prev.StartTime
}
