package repo

import (
	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
)

// QuietBlockFilter — фильтр списка quiet blocks.
type QuietBlockFilter struct {
	UserID          uuid.UUID
	IncludeInactive bool
	Limit           int
	Offset          int
}

// NotificationFilter — фильтр списка напоминаний.
type NotificationFilter struct {
	UserID uuid.UUID
	Status domain.StatusKind // пусто — любые
	Limit  int
	Offset int
}

// DefaultLimit — размер страницы, если Limit не задан.
const DefaultLimit = 50

// Normalize подставляет значения по умолчанию.
func (f *QuietBlockFilter) Normalize() {
	f.Limit, f.Offset = page(f.Limit, f.Offset)
}

// Normalize подставляет значения по умолчанию.
func (f *NotificationFilter) Normalize() {
	f.Limit, f.Offset = page(f.Limit, f.Offset)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// deref возвращает значение строки или пустую строку для NULL.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
