package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/clock"
	"github.com/shaiso/QuietHours/internal/dispatcher"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/email"
	"github.com/shaiso/QuietHours/internal/mq"
	"github.com/shaiso/QuietHours/internal/quietblock"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/repo/sqlitestore"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

const (
	testJWTSecret  = "jwt-secret"
	testCronSecret = "cron-secret"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu        sync.Mutex
	reminders []email.ReminderData
	welcomes  []string // "to|name"
	fail      string
}

func (m *fakeMailer) SendReminder(_ context.Context, data email.ReminderData) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != "" {
		return email.Result{Err: errors.New(m.fail)}
	}
	m.reminders = append(m.reminders, data)
	return email.Result{Success: true, Data: &email.Delivery{ID: "email_1"}}
}

func (m *fakeMailer) SendWelcome(_ context.Context, to, name string) email.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != "" {
		return email.Result{Err: errors.New(m.fail)}
	}
	m.welcomes = append(m.welcomes, to+"|"+name)
	return email.Result{Success: true, Data: &email.Delivery{ID: "email_2"}}
}

type fakeDispatcher struct {
	report dispatcher.Report
	err    error
	panics bool
	calls  int
}

func (d *fakeDispatcher) Run(context.Context) (dispatcher.Report, error) {
	d.calls++
	if d.panics {
		panic("store driver crashed")
	}
	return d.report, d.err
}

type fakeQueue struct {
	payloads []mq.WelcomePayload
	err      error
}

func (q *fakeQueue) PublishWelcomeRequested(_ context.Context, p mq.WelcomePayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

type testServer struct {
	mux        *http.ServeMux
	store      *sqlitestore.Store
	mailer     *fakeMailer
	dispatcher *fakeDispatcher
}

func newTestServer(t *testing.T, queue WelcomeQueue) *testServer {
	t.Helper()
	return newTestServerWith(t, queue, nil)
}

// newTestServerWith позволяет подменить хранилище напоминаний сервиса
// quiet blocks; nil — SQLite-хранилище сервера.
func newTestServerWith(t *testing.T, queue WelcomeQueue, reminders quietblock.Notifications) *testServer {
	t.Helper()

	store, err := sqlitestore.Open(context.Background(), ":memory:", telemetry.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ts := &testServer{
		mux:        http.NewServeMux(),
		store:      store,
		mailer:     &fakeMailer{},
		dispatcher: &fakeDispatcher{},
	}

	if reminders == nil {
		reminders = store.Notifications
	}
	blocks := quietblock.New(quietblock.Config{
		Blocks:        store.QuietBlocks,
		Notifications: reminders,
		Clock:         clock.Fixed(now),
	})

	h := NewHandler(Config{
		QuietBlocks:   blocks,
		Profiles:      store.Profiles,
		Notifications: store.Notifications,
		Dispatcher:    ts.dispatcher,
		Mailer:        ts.mailer,
		WelcomeQueue:  queue,
		Store:         store,
		JWTSecret:     testJWTSecret,
		CronSecret:    testCronSecret,
	})
	h.RegisterRoutes(ts.mux)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := IssueToken([]byte(testJWTSecret), userID, email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// --- Dispatcher Trigger Tests ---

func TestSendNotifications_Unauthorized(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, authz := range []string{"", "Bearer wrong", testCronSecret, "Bearer " + testCronSecret + "x"} {
		rec := ts.do(t, http.MethodPost, "/api/send-notifications", authz, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("authz %q: status = %d, want 401", authz, rec.Code)
		}
		if body := decode[PlainErrorResponse](t, rec); body.Error != "Unauthorized" {
			t.Errorf("authz %q: error = %q", authz, body.Error)
		}
	}
	if ts.dispatcher.calls != 0 {
		t.Errorf("dispatcher ran %d times without auth", ts.dispatcher.calls)
	}
}

func TestSendNotifications_Processed(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.dispatcher.report = dispatcher.Report{Total: 3, Success: 1, Failures: 1, Skipped: 1}

	rec := ts.do(t, http.MethodPost, "/api/send-notifications", "Bearer "+testCronSecret, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	got := decode[DispatchResponse](t, rec)
	want := DispatchResponse{Message: "Notifications processed", Total: 3, Success: 1, Failures: 1}
	if got != want {
		t.Errorf("response = %+v, want %+v", got, want)
	}
}

func TestSendNotifications_Empty(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/send-notifications", "Bearer "+testCronSecret, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"message":"No notifications to send","processed":0}` {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestSendNotifications_FetchError(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.dispatcher.err = errors.New("connection refused")

	rec := ts.do(t, http.MethodPost, "/api/send-notifications", "Bearer "+testCronSecret, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[PlainErrorResponse](t, rec); body.Error != "Failed to fetch notifications" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestSendNotifications_Panic(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.dispatcher.panics = true

	rec := ts.do(t, http.MethodPost, "/api/send-notifications", "Bearer "+testCronSecret, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[PlainErrorResponse](t, rec); body.Error != "Internal server error" {
		t.Errorf("error = %q", body.Error)
	}
}

// --- Test Email Tests ---

func TestTestEmail_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing email", map[string]string{"type": "welcome"}, "Email is required"},
		{"invalid type", map[string]string{"type": "digest", "email": "a@example.com"}, "Invalid email type"},
		{"malformed body", "{", "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/test-email", "", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if body := decode[PlainErrorResponse](t, rec); body.Error != tt.want {
				t.Errorf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestTestEmail_ReminderDefaults(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/test-email", "", map[string]string{
		"type":  "reminder",
		"email": "ada@example.com",
		"title": "Thesis",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	body := decode[TestEmailResponse](t, rec)
	if body.Message != "Email sent successfully" || body.Data == nil || body.Data.ID != "email_1" {
		t.Errorf("response = %+v", body)
	}

	want := email.ReminderData{
		To:          "ada@example.com",
		UserName:    "Test User",
		Title:       "Thesis",
		Description: "This is a test quiet block reminder",
		Date:        "Today",
		StartTime:   "2:00 PM",
		EndTime:     "3:00 PM",
	}
	if len(ts.mailer.reminders) != 1 || ts.mailer.reminders[0] != want {
		t.Errorf("reminders = %+v", ts.mailer.reminders)
	}
}

func TestTestEmail_Welcome(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/test-email", "", map[string]string{
		"type":  "welcome",
		"email": "ada@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(ts.mailer.welcomes) != 1 || ts.mailer.welcomes[0] != "ada@example.com|Test User" {
		t.Errorf("welcomes = %v", ts.mailer.welcomes)
	}
}

func TestTestEmail_ProviderFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.mailer.fail = "Invalid API key"

	rec := ts.do(t, http.MethodPost, "/api/test-email", "", map[string]string{
		"type":  "welcome",
		"email": "ada@example.com",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decode[PlainErrorResponse](t, rec)
	if body.Error != "Failed to send email" || body.Details != "Invalid API key" {
		t.Errorf("response = %+v", body)
	}
}

// --- Webhook Tests ---

func TestWebhook_ProfileInsertSendsWelcome(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/webhooks/supabase", "", map[string]any{
		"type":   "INSERT",
		"table":  "profiles",
		"record": map[string]string{"id": uuid.NewString(), "email": "ada@example.com", "full_name": "Ada"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[MessageResponse](t, rec); body.Message != "Webhook processed" {
		t.Errorf("message = %q", body.Message)
	}
	if len(ts.mailer.welcomes) != 1 || ts.mailer.welcomes[0] != "ada@example.com|Ada" {
		t.Errorf("welcomes = %v", ts.mailer.welcomes)
	}
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	ts := newTestServer(t, nil)

	events := []map[string]any{
		{"type": "UPDATE", "table": "profiles", "record": map[string]string{"email": "a@example.com"}},
		{"type": "INSERT", "table": "quiet_blocks", "record": map[string]string{"email": "a@example.com"}},
		{"type": "INSERT", "table": "profiles", "record": map[string]string{}},
	}
	for _, ev := range events {
		rec := ts.do(t, http.MethodPost, "/api/webhooks/supabase", "", ev)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d for %v", rec.Code, ev)
		}
	}
	if len(ts.mailer.welcomes) != 0 {
		t.Errorf("unexpected welcomes: %v", ts.mailer.welcomes)
	}
}

func TestWebhook_SendErrorSwallowed(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.mailer.fail = "rate limited"

	rec := ts.do(t, http.MethodPost, "/api/webhooks/supabase", "", map[string]any{
		"type":   "INSERT",
		"table":  "profiles",
		"record": map[string]string{"email": "ada@example.com"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWebhook_QueuesWelcomeWhenBrokerConfigured(t *testing.T) {
	queue := &fakeQueue{}
	ts := newTestServer(t, queue)

	ts.do(t, http.MethodPost, "/api/webhooks/supabase", "", map[string]any{
		"type":   "INSERT",
		"table":  "profiles",
		"record": map[string]string{"email": "ada@example.com", "full_name": "Ada"},
	})

	if len(queue.payloads) != 1 || queue.payloads[0].Email != "ada@example.com" {
		t.Errorf("queued = %+v", queue.payloads)
	}
	if len(ts.mailer.welcomes) != 0 {
		t.Error("queued welcome must not be sent inline")
	}
}

func TestWebhook_QueueFailureFallsBackInline(t *testing.T) {
	ts := newTestServer(t, &fakeQueue{err: errors.New("channel closed")})

	ts.do(t, http.MethodPost, "/api/webhooks/supabase", "", map[string]any{
		"type":   "INSERT",
		"table":  "profiles",
		"record": map[string]string{"email": "ada@example.com"},
	})

	if len(ts.mailer.welcomes) != 1 {
		t.Errorf("welcomes = %v", ts.mailer.welcomes)
	}
}

// --- Auth Tests ---

func TestJWTAuth(t *testing.T) {
	ts := newTestServer(t, nil)

	foreign, err := IssueToken([]byte("other-secret"), uuid.New(), "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for _, authz := range []string{"", "Bearer garbage", "Bearer " + foreign} {
		rec := ts.do(t, http.MethodGet, "/api/v1/quiet-blocks", authz, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("authz %q: status = %d, want 401", authz, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/quiet-blocks", bearer(t, uuid.New(), ""), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", rec.Code)
	}
}

// --- Middleware Tests ---

func TestLogging_RequestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	userID := uuid.New()

	h := Chain(Logging(logger), JWTAuth([]byte(testJWTSecret)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		telemetry.FromContext(r.Context()).Info("inside handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", bearer(t, userID, ""))
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %q", lines)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["msg"] != "inside handler" || entry["path"] != "/api/v1/profile" ||
		entry["method"] != http.MethodGet || entry["user_id"] != userID.String() {
		t.Errorf("entry = %v", entry)
	}
}

// --- Quiet Block Tests ---

type failingReminders struct {
	quietblock.Notifications
}

func (failingReminders) Upsert(context.Context, *domain.Notification) error {
	return errors.New("connection refused")
}

func TestQuietBlocks_CreateReportsReminderError(t *testing.T) {
	ts := newTestServerWith(t, nil, failingReminders{})
	userID := uuid.New()
	authz := bearer(t, userID, "")

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", authz, map[string]string{
		"title":      "Deep work",
		"date":       "2025-03-10",
		"start_time": "09:00",
		"end_time":   "10:30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	created := decode[struct{ Data QuietBlockResponse }](t, rec).Data
	if created.ReminderError != "failed to schedule reminder" {
		t.Errorf("reminder_error = %q", created.ReminderError)
	}
	if created.Reminder != nil {
		t.Errorf("reminder = %+v, want none", created.Reminder)
	}

	// сессия сохранена несмотря на ошибку напоминания
	blocks, err := ts.store.QuietBlocks.List(context.Background(), repo.QuietBlockFilter{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(blocks) != 1 || blocks[0].ID != created.ID {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestQuietBlocks_CreateInPastRejected(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", bearer(t, uuid.New(), ""), map[string]string{
		"title":      "Too late",
		"date":       "2025-03-10",
		"start_time": "07:00",
		"end_time":   "07:30",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if body := decode[ErrorResponse](t, rec); body.Error.Field != "start_time" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestQuietBlocks_Deactivate(t *testing.T) {
	ts := newTestServer(t, nil)
	authz := bearer(t, uuid.New(), "")

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", authz, map[string]string{
		"title":      "Deep work",
		"date":       "2025-03-10",
		"start_time": "09:00",
		"end_time":   "10:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	id := decode[struct{ Data QuietBlockResponse }](t, rec).Data.ID.String()

	rec = ts.do(t, http.MethodPost, "/api/v1/quiet-blocks/"+id+"/deactivate", authz, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: status = %d, body = %s", rec.Code, rec.Body)
	}
	if decode[struct{ Data QuietBlockResponse }](t, rec).Data.IsActive {
		t.Error("block should be inactive")
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/quiet-blocks", authz, nil)
	if list := decode[struct{ Data []QuietBlockResponse }](t, rec).Data; len(list) != 0 {
		t.Errorf("inactive block listed by default: %+v", list)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/quiet-blocks/"+id+"/deactivate", bearer(t, uuid.New(), ""), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign deactivate: status = %d", rec.Code)
	}
}

func TestQuietBlocks_CRUD(t *testing.T) {
	ts := newTestServer(t, nil)
	authz := bearer(t, uuid.New(), "")

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", authz, map[string]string{
		"title":      "Deep work",
		"date":       "2025-03-10",
		"start_time": "09:00",
		"end_time":   "10:30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body)
	}

	created := decode[struct{ Data QuietBlockResponse }](t, rec).Data
	if created.Reminder == nil {
		t.Fatal("expected reminder")
	}
	if want := time.Date(2025, 3, 10, 8, 50, 0, 0, time.UTC); !created.Reminder.ScheduledTime.Equal(want) {
		t.Errorf("scheduled = %s, want %s", created.Reminder.ScheduledTime, want)
	}
	if created.Reminder.Status != "pending" {
		t.Errorf("reminder status = %s", created.Reminder.Status)
	}

	path := "/api/v1/quiet-blocks/" + created.ID.String()

	rec = ts.do(t, http.MethodPut, path, authz, map[string]string{"start_time": "10:00", "end_time": "11:00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", rec.Code, rec.Body)
	}
	updated := decode[struct{ Data QuietBlockResponse }](t, rec).Data
	if want := time.Date(2025, 3, 10, 9, 50, 0, 0, time.UTC); !updated.Reminder.ScheduledTime.Equal(want) {
		t.Errorf("rescheduled = %s, want %s", updated.Reminder.ScheduledTime, want)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/quiet-blocks", authz, nil)
	if list := decode[struct{ Data []QuietBlockResponse }](t, rec).Data; len(list) != 1 {
		t.Errorf("list = %d blocks", len(list))
	}

	rec = ts.do(t, http.MethodDelete, path, authz, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, path, authz, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d", rec.Code)
	}
}

func TestQuietBlocks_ValidationError(t *testing.T) {
	ts := newTestServer(t, nil)
	authz := bearer(t, uuid.New(), "")

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", authz, map[string]string{
		"title":      "Backwards",
		"date":       "2025-03-10",
		"start_time": "10:00",
		"end_time":   "09:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decode[ErrorResponse](t, rec)
	if body.Error.Code != ErrCodeValidation || body.Error.Field != "end_time" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestQuietBlocks_MalformedTime(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", bearer(t, uuid.New(), ""), map[string]string{
		"title":      "Bad",
		"date":       "2025-03-10",
		"start_time": "25:00",
		"end_time":   "26:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestQuietBlocks_ForeignBlockIsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	owner := bearer(t, uuid.New(), "")
	stranger := bearer(t, uuid.New(), "")

	rec := ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", owner, map[string]string{
		"title":      "Mine",
		"date":       "2025-03-10",
		"start_time": "09:00",
		"end_time":   "10:00",
	})
	id := decode[struct{ Data QuietBlockResponse }](t, rec).Data.ID.String()
	path := "/api/v1/quiet-blocks/" + id

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := ts.do(t, method, path, stranger, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", method, rec.Code)
		}
	}
	if rec := ts.do(t, http.MethodGet, path, owner, nil); rec.Code != http.StatusOK {
		t.Errorf("owner lost access: status = %d", rec.Code)
	}
}

func TestNotifications_List(t *testing.T) {
	ts := newTestServer(t, nil)
	authz := bearer(t, uuid.New(), "")

	ts.do(t, http.MethodPost, "/api/v1/quiet-blocks", authz, map[string]string{
		"title":      "Deep work",
		"date":       "2025-03-10",
		"start_time": "09:00",
		"end_time":   "10:00",
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications?status=pending", authz, nil)
	if list := decode[struct{ Data []NotificationResponse }](t, rec).Data; len(list) != 1 {
		t.Errorf("pending = %d", len(list))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/notifications?status=failed", authz, nil)
	if list := decode[struct{ Data []NotificationResponse }](t, rec).Data; len(list) != 0 {
		t.Errorf("failed = %d", len(list))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/notifications?status=lost", authz, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status: code = %d", rec.Code)
	}
}

// --- Profile Tests ---

func TestProfile_FirstUpsertSendsWelcome(t *testing.T) {
	ts := newTestServer(t, nil)
	authz := bearer(t, uuid.New(), "ada@example.com")

	rec := ts.do(t, http.MethodGet, "/api/v1/profile", authz, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get before create: status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/profile", authz, map[string]string{"full_name": "Ada"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first put: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/profile", authz, map[string]string{"full_name": "Ada L."})
	if rec.Code != http.StatusOK {
		t.Fatalf("second put: status = %d", rec.Code)
	}

	if len(ts.mailer.welcomes) != 1 || ts.mailer.welcomes[0] != "ada@example.com|Ada" {
		t.Errorf("welcomes = %v", ts.mailer.welcomes)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/profile", authz, nil)
	got := decode[struct {
		Data struct {
			Email    string `json:"email"`
			FullName string `json:"full_name"`
		}
	}](t, rec)
	if got.Data.Email != "ada@example.com" || got.Data.FullName != "Ada L." {
		t.Errorf("profile = %+v", got.Data)
	}
}

func TestProfile_RequiresEmail(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPut, "/api/v1/profile", bearer(t, uuid.New(), ""), map[string]string{"full_name": "Ada"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

// --- Health Tests ---

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}
}
