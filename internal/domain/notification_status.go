package domain

import (
	"fmt"
	"time"
)

// StatusKind — вид статуса уведомления, как он хранится в БД.
//
// Жизненный цикл:
//
//	PENDING → PROCESSING → SENT
//	                     ↘ FAILED
//	(PROCESSING → PENDING, если запись пропущена диспетчером)
//	(любой → PENDING при изменении даты/времени quiet block)
type StatusKind string

const (
	// StatusPending — уведомление ждёт своего окна отправки.
	StatusPending StatusKind = "pending"

	// StatusProcessing — запись захвачена диспетчером, письмо отправляется.
	StatusProcessing StatusKind = "processing"

	// StatusSent — письмо отправлено.
	StatusSent StatusKind = "sent"

	// StatusFailed — отправка не удалась. Повторно не обрабатывается.
	StatusFailed StatusKind = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (k StatusKind) IsTerminal() bool {
	return k == StatusSent || k == StatusFailed
}

// ParseStatusKind парсит строку в StatusKind.
func ParseStatusKind(s string) (StatusKind, error) {
	switch k := StatusKind(s); k {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed:
		return k, nil
	default:
		return "", fmt.Errorf("unknown notification status %q", s)
	}
}

// UnknownError — текст ошибки, когда провайдер не вернул сообщения.
const UnknownError = "Unknown error"

// NotificationStatus — статус уведомления как закрытый вариант:
// Pending | Processing | Sent(at) | Failed(detail).
//
// Создаётся только конструкторами, поэтому "sent с ошибкой" или
// "failed без описания" непредставимы. Нулевое значение — Pending.
type NotificationStatus struct {
	kind   StatusKind
	detail string
	sentAt time.Time
}

// Pending возвращает статус ожидания.
func Pending() NotificationStatus {
	return NotificationStatus{kind: StatusPending}
}

// Processing возвращает статус захвата диспетчером.
func Processing() NotificationStatus {
	return NotificationStatus{kind: StatusProcessing}
}

// Sent возвращает статус успешной отправки в момент at.
func Sent(at time.Time) NotificationStatus {
	return NotificationStatus{kind: StatusSent, sentAt: at}
}

// Failed возвращает статус ошибки с описанием.
// Пустое описание заменяется на UnknownError.
func Failed(detail string) NotificationStatus {
	if detail == "" {
		detail = UnknownError
	}
	return NotificationStatus{kind: StatusFailed, detail: detail}
}

// Kind возвращает вид статуса.
func (s NotificationStatus) Kind() StatusKind {
	if s.kind == "" {
		return StatusPending
	}
	return s.kind
}

// Detail возвращает описание ошибки (только для Failed).
func (s NotificationStatus) Detail() string {
	return s.detail
}

// SentAt возвращает момент отправки (только для Sent).
func (s NotificationStatus) SentAt() (time.Time, bool) {
	if s.Kind() != StatusSent {
		return time.Time{}, false
	}
	return s.sentAt, true
}

// String возвращает строковое представление статуса.
func (s NotificationStatus) String() string {
	return string(s.Kind())
}

// Columns раскладывает статус на колонки status, error_message, sent_at.
func (s NotificationStatus) Columns() (string, *string, *time.Time) {
	switch s.Kind() {
	case StatusFailed:
		detail := s.detail
		return string(StatusFailed), &detail, nil
	case StatusSent:
		at := s.sentAt
		return string(StatusSent), nil, &at
	default:
		return string(s.Kind()), nil, nil
	}
}

// StatusFromColumns собирает статус из колонок БД.
// Лишние значения (error_message у sent и т.п.) отбрасываются.
func StatusFromColumns(kind string, errorMessage *string, sentAt *time.Time) (NotificationStatus, error) {
	k, err := ParseStatusKind(kind)
	if err != nil {
		return NotificationStatus{}, err
	}

	switch k {
	case StatusFailed:
		var detail string
		if errorMessage != nil {
			detail = *errorMessage
		}
		return Failed(detail), nil
	case StatusSent:
		var at time.Time
		if sentAt != nil {
			at = *sentAt
		}
		return Sent(at), nil
	case StatusProcessing:
		return Processing(), nil
	default:
		return Pending(), nil
	}
}
