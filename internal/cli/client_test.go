package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/QuietHours/internal/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, Token: "tok", CronSecret: "cron"})
}

// --- Client Tests ---

func TestClient_ListBlocks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/quiet-blocks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Query().Get("include_inactive") != "true" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"id":"b1","title":"Deep work","date":"2025-03-10","start_time":"09:00","end_time":"10:00","is_active":true,"reminder":{"status":"pending"}}],"total":1}`))
	})

	blocks, err := client.ListBlocks(ListBlocksOpts{IncludeInactive: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Title != "Deep work" || blocks[0].Reminder.Status != "pending" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestClient_CreateBlockSendsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreateQuietBlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Title != "Deep work" || req.StartTime != "09:00" {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"b1","title":"Deep work"}}`))
	})

	block, err := client.CreateBlock(CreateQuietBlockRequest{
		Title: "Deep work", Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.ID != "b1" {
		t.Errorf("id = %s", block.ID)
	}
}

func TestClient_EnvelopeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"VALIDATION_FAILED","message":"end time must be after start time","field":"end_time"}}`))
	})

	_, err := client.CreateBlock(CreateQuietBlockRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "end_time") || !strings.Contains(err.Error(), "VALIDATION_FAILED") {
		t.Errorf("error = %v", err)
	}
}

func TestClient_Dispatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer cron" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		w.Write([]byte(`{"message":"Notifications processed","total":2,"success":1,"failures":1}`))
	})

	result, err := client.Dispatch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || result.Success != 1 || result.Failures != 1 || result.Processed != nil {
		t.Errorf("result = %+v", result)
	}
}

func TestClient_DispatchEmptyAndUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"No notifications to send","processed":0}`))
	})

	result, err := client.Dispatch()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed == nil || *result.Processed != 0 {
		t.Errorf("processed = %v", result.Processed)
	}

	denied := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized"}`))
	})
	if _, err := denied.Dispatch(); err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("error = %v", err)
	}
}

func TestClient_TestEmailFailureDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to send email","details":"Invalid API key"}`))
	})

	_, err := client.TestEmail(TestEmailRequest{Type: "welcome", Email: "a@example.com"})
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error = %v", err)
	}
}

// --- Output Tests ---

func TestOutput_StatusWithoutColor(t *testing.T) {
	out := &Output{}
	for _, s := range []string{"pending", "sent", "failed", "processing"} {
		if got := out.Status(s); got != s {
			t.Errorf("Status(%q) = %q", s, got)
		}
	}
	if out.Active(false) != "inactive" {
		t.Error("inactive without color")
	}
}

func TestOutput_Table(t *testing.T) {
	var buf strings.Builder
	out := &Output{w: &buf}

	out.Table([]string{"ID", "STATUS"}, [][]string{{"n1", "sent"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[1], "--") || !strings.Contains(lines[2], "sent") {
		t.Errorf("table = %q", buf.String())
	}
}

// --- Token Tests ---

func TestTokenCmd_IssuesVerifiableToken(t *testing.T) {
	var buf strings.Builder
	userID := uuid.New()

	cmd := NewTokenCmd(func() *Output { return &Output{w: &buf} })
	cmd.SetArgs([]string{"--secret", "dev-secret", "--user", userID.String(), "--email", "ada@example.com"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := api.ParseToken([]byte("dev-secret"), strings.TrimSpace(buf.String()))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != userID.String() || claims.Email != "ada@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenCmd_RequiresSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	cmd := NewTokenCmd(func() *Output { return &Output{w: &strings.Builder{}} })
	cmd.SetArgs([]string{"--secret", ""})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without secret")
	}
}
