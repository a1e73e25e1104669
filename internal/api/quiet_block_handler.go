package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
)

// ListQuietBlocks возвращает сессии пользователя.
// GET /api/v1/quiet-blocks?include_inactive=...&limit=...&offset=...
func (h *Handler) ListQuietBlocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.QuietBlockFilter{
		UserID:          UserID(r.Context()),
		IncludeInactive: q.Get("include_inactive") == "true",
		Limit:           parseInt(q.Get("limit"), repo.DefaultLimit),
		Offset:          parseInt(q.Get("offset"), 0),
	}

	blocks, err := h.blocks.List(r.Context(), filter)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "") {
		return
	}

	result := make([]QuietBlockResponse, len(blocks))
	for i := range blocks {
		result[i] = QuietBlockFromDomain(&blocks[i])
	}

	List(w, result, len(result))
}

// CreateQuietBlock создаёт сессию и её напоминание.
// POST /api/v1/quiet-blocks
func (h *Handler) CreateQuietBlock(w http.ResponseWriter, r *http.Request) {
	var req CreateQuietBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	out, err := h.blocks.Create(r.Context(), UserID(r.Context()), req.Input())
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "") {
		return
	}

	Created(w, QuietBlockFromOutcome(out))
}

// GetQuietBlock возвращает сессию с напоминанием.
// GET /api/v1/quiet-blocks/{id}
func (h *Handler) GetQuietBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	out, err := h.blocks.Get(r.Context(), UserID(r.Context()), id)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "quiet block not found") {
		return
	}

	Success(w, QuietBlockFromOutcome(out))
}

// UpdateQuietBlock частично обновляет сессию. Изменение даты или
// времени начала переносит напоминание.
// PUT /api/v1/quiet-blocks/{id}
func (h *Handler) UpdateQuietBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateQuietBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	out, err := h.blocks.Update(r.Context(), UserID(r.Context()), id, req.Input())
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "quiet block not found") {
		return
	}

	Success(w, QuietBlockFromOutcome(out))
}

// DeactivateQuietBlock скрывает сессию из списка по умолчанию.
// Напоминание остаётся, но диспетчер его не выбирает.
// POST /api/v1/quiet-blocks/{id}/deactivate
func (h *Handler) DeactivateQuietBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	out, err := h.blocks.Deactivate(r.Context(), UserID(r.Context()), id)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "quiet block not found") {
		return
	}

	Success(w, QuietBlockFromOutcome(out))
}

// DeleteQuietBlock удаляет сессию вместе с напоминанием.
// DELETE /api/v1/quiet-blocks/{id}
func (h *Handler) DeleteQuietBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.blocks.Delete(r.Context(), UserID(r.Context()), id)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "quiet block not found") {
		return
	}

	NoContent(w)
}

// ListNotifications возвращает напоминания пользователя.
// GET /api/v1/notifications?status=...&limit=...&offset=...
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.NotificationFilter{
		UserID: UserID(r.Context()),
		Limit:  parseInt(q.Get("limit"), repo.DefaultLimit),
		Offset: parseInt(q.Get("offset"), 0),
	}

	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatusKind(s)
		if err != nil {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	notifications, err := h.notifications.List(r.Context(), filter)
	if HandleRepoError(w, h.loggerFrom(r.Context()), err, "") {
		return
	}

	result := make([]NotificationResponse, len(notifications))
	for i := range notifications {
		result[i] = NotificationFromDomain(&notifications[i])
	}

	List(w, result, len(result))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid quiet block id")
		return uuid.Nil, false
	}
	return id, true
}

func parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return n
}
