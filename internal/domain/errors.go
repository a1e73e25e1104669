package domain

import "errors"

// ErrValidation — базовая ошибка валидации доменных объектов.
// Проверяется через errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError — ошибка валидации конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap позволяет errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
