package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDisplayName — обращение в письмах, если имя не задано.
const DefaultDisplayName = "there"

// Profile — профиль пользователя. ID совпадает с id пользователя
// в сервисе аутентификации (claim "sub").
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName возвращает имя для обращения в письмах.
func (p *Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return DefaultDisplayName
}

// Validate проверяет обязательные поля профиля.
func (p *Profile) Validate() error {
	if p.ID == uuid.Nil {
		return invalid("id", "profile id is required")
	}
	if !strings.Contains(p.Email, "@") {
		return invalid("email", "valid email is required")
	}
	return nil
}
