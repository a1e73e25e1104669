package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/email"
)

// SendNotifications запускает рассылку напоминаний.
// Защищён CronAuth. POST /api/send-notifications
// Ошибка выборки — 500 "Failed to fetch notifications", прочие сбои — 500 "Internal server error".
func (h *Handler) SendNotifications(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.loggerFrom(r.Context()).Error("dispatch run panic", "panic", rec)
			PlainError(w, http.StatusInternalServerError, "Internal server error")
		}
	}()

	report, err := h.dispatcher.Run(r.Context())
	if err != nil {
		h.loggerFrom(r.Context()).Error("dispatch run failed", "error", err)
		PlainError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}

	if report.Total == 0 {
		JSON(w, http.StatusOK, EmptyDispatchResponse{
			Message:   "No notifications to send",
			Processed: 0,
		})
		return
	}

	JSON(w, http.StatusOK, DispatchResponse{
		Message:  "Notifications processed",
		Total:    report.Total,
		Success:  report.Success,
		Failures: report.Failures,
	})
}

// TestEmail отправляет тестовое письмо выбранного шаблона.
// POST /api/test-email
func (h *Handler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		PlainError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		PlainError(w, http.StatusBadRequest, "Email is required")
		return
	}

	kind, err := email.ParseKind(req.Type)
	if err != nil {
		PlainError(w, http.StatusBadRequest, "Invalid email type")
		return
	}

	var res email.Result
	switch kind {
	case email.KindWelcome:
		res = h.mailer.SendWelcome(r.Context(), req.Email, or(req.Name, "Test User"))
	case email.KindReminder:
		res = h.mailer.SendReminder(r.Context(), email.ReminderData{
			To:          req.Email,
			UserName:    or(req.Name, "Test User"),
			Title:       or(req.Title, "Test Study Session"),
			Description: or(req.Description, "This is a test quiet block reminder"),
			Date:        or(req.Date, "Today"),
			StartTime:   or(req.StartTime, "2:00 PM"),
			EndTime:     or(req.EndTime, "3:00 PM"),
		})
	}

	if !res.Success {
		JSON(w, http.StatusInternalServerError, PlainErrorResponse{
			Error:   "Failed to send email",
			Details: res.ErrorMessage(),
		})
		return
	}

	JSON(w, http.StatusOK, TestEmailResponse{
		Message: "Email sent successfully",
		Data:    res.Data,
	})
}

// SupabaseWebhook обрабатывает события базы данных. INSERT в profiles
// отправляет приветственное письмо; ошибки отправки не влияют на ответ.
// POST /api/webhooks/supabase
func (h *Handler) SupabaseWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		PlainError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Type == "INSERT" && req.Table == "profiles" && req.Record.Email != "" {
		userID, _ := uuid.Parse(req.Record.ID)
		h.sendWelcome(r.Context(), userID, req.Record.Email, req.Record.FullName)
	}

	JSON(w, http.StatusOK, MessageResponse{Message: "Webhook processed"})
}

var startTime = time.Now()

// Healthz отвечает "ok", если хранилище доступно.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.loggerFrom(r.Context()).Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "store unavailable")
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
}

// or возвращает def для пустой строки.
func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
