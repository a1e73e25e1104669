package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/quietblock"
)

// QuietBlock DTOs

// CreateQuietBlockRequest — запрос на создание quiet block.
type CreateQuietBlockRequest struct {
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	Date              domain.Date      `json:"date"`
	StartTime         domain.TimeOfDay `json:"start_time"`
	EndTime           domain.TimeOfDay `json:"end_time"`
	IsRecurring       bool             `json:"is_recurring,omitempty"`
	RecurrencePattern string           `json:"recurrence_pattern,omitempty"`
}

// Input конвертирует запрос во входные данные сервиса.
func (r CreateQuietBlockRequest) Input() quietblock.CreateInput {
	return quietblock.CreateInput{
		Title:             r.Title,
		Description:       r.Description,
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
	}
}

// UpdateQuietBlockRequest — частичное обновление quiet block.
type UpdateQuietBlockRequest struct {
	Title             *string           `json:"title,omitempty"`
	Description       *string           `json:"description,omitempty"`
	Date              *domain.Date      `json:"date,omitempty"`
	StartTime         *domain.TimeOfDay `json:"start_time,omitempty"`
	EndTime           *domain.TimeOfDay `json:"end_time,omitempty"`
	IsRecurring       *bool             `json:"is_recurring,omitempty"`
	RecurrencePattern *string           `json:"recurrence_pattern,omitempty"`
	IsActive          *bool             `json:"is_active,omitempty"`
}

// Input конвертирует запрос во входные данные сервиса.
func (r UpdateQuietBlockRequest) Input() quietblock.UpdateInput {
	return quietblock.UpdateInput{
		Title:             r.Title,
		Description:       r.Description,
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		IsRecurring:       r.IsRecurring,
		RecurrencePattern: r.RecurrencePattern,
		IsActive:          r.IsActive,
	}
}

// QuietBlockResponse — ответ с quiet block и его напоминанием.
type QuietBlockResponse struct {
	ID                uuid.UUID             `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description,omitempty"`
	Date              domain.Date           `json:"date"`
	StartTime         domain.TimeOfDay      `json:"start_time"`
	EndTime           domain.TimeOfDay      `json:"end_time"`
	IsRecurring       bool                  `json:"is_recurring"`
	RecurrencePattern string                `json:"recurrence_pattern,omitempty"`
	IsActive          bool                  `json:"is_active"`
	Reminder          *NotificationResponse `json:"reminder,omitempty"`

	// ReminderError — напоминание не удалось сохранить, сессия сохранена.
	ReminderError string `json:"reminder_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuietBlockFromDomain конвертирует domain.QuietBlock в QuietBlockResponse.
func QuietBlockFromDomain(b *domain.QuietBlock) QuietBlockResponse {
	return QuietBlockResponse{
		ID:                b.ID,
		Title:             b.Title,
		Description:       b.Description,
		Date:              b.Date,
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		IsRecurring:       b.IsRecurring,
		RecurrencePattern: b.RecurrencePattern,
		IsActive:          b.IsActive,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// QuietBlockFromOutcome добавляет к сессии её напоминание.
func QuietBlockFromOutcome(o *quietblock.Outcome) QuietBlockResponse {
	resp := QuietBlockFromDomain(o.Block)
	if o.Notification != nil {
		n := NotificationFromDomain(o.Notification)
		resp.Reminder = &n
	}
	if o.ReminderErr != nil {
		resp.ReminderError = "failed to schedule reminder"
	}
	return resp
}

// Notification DTOs

// NotificationResponse — ответ с напоминанием.
type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	QuietBlockID  uuid.UUID  `json:"quiet_block_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Status        string     `json:"status"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NotificationFromDomain конвертирует domain.Notification в NotificationResponse.
func NotificationFromDomain(n *domain.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:            n.ID,
		QuietBlockID:  n.QuietBlockID,
		ScheduledTime: n.ScheduledTime,
		Status:        string(n.Status.Kind()),
		ErrorMessage:  n.Status.Detail(),
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
	if at, ok := n.Status.SentAt(); ok {
		resp.SentAt = &at
	}
	return resp
}

// Profile DTOs

// UpdateProfileRequest — запрос на создание или обновление своего профиля.
// Email берётся из токена, если там он есть.
type UpdateProfileRequest struct {
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Trigger DTOs

// DispatchResponse — итог запуска рассылки.
type DispatchResponse struct {
	Message  string `json:"message"`
	Total    int    `json:"total"`
	Success  int    `json:"success"`
	Failures int    `json:"failures"`
}

// EmptyDispatchResponse — ответ, когда отправлять нечего.
type EmptyDispatchResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
}

// TestEmailRequest — запрос на тестовое письмо. Незаданные поля
// заменяются тестовыми значениями.
type TestEmailRequest struct {
	Type        string `json:"type"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Date        string `json:"date,omitempty"`
}

// TestEmailResponse — успешная отправка тестового письма.
type TestEmailResponse struct {
	Message string          `json:"message"`
	Data    *email.Delivery `json:"data"`
}

// WebhookRequest — событие базы данных от backend-as-a-service.
type WebhookRequest struct {
	Type   string        `json:"type"`
	Table  string        `json:"table"`
	Record WebhookRecord `json:"record"`
}

// WebhookRecord — строка profiles из события.
type WebhookRecord struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
