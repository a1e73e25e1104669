package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/QuietHours/internal/domain"
)

// GetProfile возвращает профиль текущего пользователя.
// GET /api/v1/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetByID(r.Context(), UserID(r.Context()))
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "profile not found") {
		return
	}

	Success(w, profile)
}

// UpdateProfile создаёт или обновляет профиль текущего пользователя.
// Первое создание профиля отправляет приветственное письмо.
// PUT /api/v1/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()
	profile := &domain.Profile{
		ID:        UserID(ctx),
		Email:     strings.TrimSpace(req.Email),
		FullName:  strings.TrimSpace(req.FullName),
		AvatarURL: strings.TrimSpace(req.AvatarURL),
		UpdatedAt: time.Now().UTC(),
	}
	if email := tokenEmail(ctx); email != "" {
		profile.Email = email
	}
	if err := profile.Validate(); HandleRepoError(w, h.loggerFrom(r.Context()), err, "") {
		return
	}

	created, err := h.profiles.Upsert(ctx, profile)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "") {
		return
	}

	if !created {
		Success(w, profile)
		return
	}

	h.sendWelcome(ctx, profile.ID, profile.Email, profile.FullName)
	Created(w, profile)
}
