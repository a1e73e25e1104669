package quietblock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/clock"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/repo/sqlitestore"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *sqlitestore.Store) {
	t.Helper()

	store, err := sqlitestore.Open(context.Background(), ":memory:", telemetry.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := New(Config{
		Blocks:        store.QuietBlocks,
		Notifications: store.Notifications,
		Clock:         clock.Fixed(now),
		Location:      time.UTC,
	})
	return svc, store
}

func input(start, end domain.TimeOfDay) CreateInput {
	return CreateInput{
		Title:     "  Deep work  ",
		Date:      domain.Date{Year: 2025, Month: time.March, Day: 10},
		StartTime: start,
		EndTime:   end,
	}
}

// --- Create Tests ---

func TestCreate_SchedulesReminderTenMinutesBefore(t *testing.T) {
	svc, _ := setupService(t)
	userID := uuid.New()

	out, err := svc.Create(context.Background(), userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Block.Title != "Deep work" {
		t.Errorf("title should be trimmed, got %q", out.Block.Title)
	}
	if out.ReminderErr != nil {
		t.Fatalf("unexpected reminder error: %v", out.ReminderErr)
	}
	if out.Notification == nil {
		t.Fatal("expected a notification")
	}

	want := time.Date(2025, 3, 10, 8, 50, 0, 0, time.UTC)
	if !out.Notification.ScheduledTime.Equal(want) {
		t.Errorf("scheduled = %s, want %s", out.Notification.ScheduledTime, want)
	}
	if out.Notification.Status.Kind() != domain.StatusPending {
		t.Errorf("status = %s", out.Notification.Status)
	}
	if out.Notification.UserID != userID {
		t.Error("notification should belong to the block owner")
	}
}

func TestCreate_PastReminderIsSkipped(t *testing.T) {
	svc, store := setupService(t)

	// начало в 08:05, напоминание было бы в 07:55 < now
	out, err := svc.Create(context.Background(), uuid.New(),
		input(domain.TimeOfDay{Hour: 8, Minute: 5}, domain.TimeOfDay{Hour: 9}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Notification != nil || out.ReminderErr != nil {
		t.Errorf("expected no reminder, got %+v", out)
	}

	if _, err := store.Notifications.GetByQuietBlock(context.Background(), out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected no stored notification, got %v", err)
	}
}

func TestCreate_ReminderExactlyNowIsSkipped(t *testing.T) {
	svc, _ := setupService(t)

	out, err := svc.Create(context.Background(), uuid.New(),
		input(domain.TimeOfDay{Hour: 8, Minute: 10}, domain.TimeOfDay{Hour: 9}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Notification != nil {
		t.Error("reminder at exactly now must be skipped")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, store := setupService(t)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, input(domain.TimeOfDay{Hour: 10}, domain.TimeOfDay{Hour: 9}))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	blocks, err := store.QuietBlocks.List(context.Background(), repo.QuietBlockFilter{UserID: userID, IncludeInactive: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("invalid block must not be stored, got %d", len(blocks))
	}
}

func TestCreate_StartNotInFutureRejected(t *testing.T) {
	tests := []struct {
		name  string
		start domain.TimeOfDay
	}{
		{"already started", domain.TimeOfDay{Hour: 7, Minute: 30}},
		{"starts exactly now", domain.TimeOfDay{Hour: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := setupService(t)
			userID := uuid.New()

			_, err := svc.Create(context.Background(), userID, input(tt.start, domain.TimeOfDay{Hour: 9}))
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != "start_time" {
				t.Fatalf("expected start_time validation error, got %v", err)
			}

			blocks, err := store.QuietBlocks.List(context.Background(), repo.QuietBlockFilter{UserID: userID, IncludeInactive: true})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(blocks) != 0 {
				t.Errorf("rejected block must not be stored, got %d", len(blocks))
			}
		})
	}
}

type failingNotifications struct {
	Notifications
}

func (failingNotifications) Upsert(context.Context, *domain.Notification) error {
	return errors.New("connection refused")
}

func TestCreate_ReminderFailureKeepsBlock(t *testing.T) {
	svc, store := setupService(t)
	svc.notifications = failingNotifications{Notifications: store.Notifications}

	out, err := svc.Create(context.Background(), uuid.New(), input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("block write succeeded, error must not be returned: %v", err)
	}
	if out.ReminderErr == nil {
		t.Fatal("expected ReminderErr")
	}

	if _, err := store.QuietBlocks.GetByID(context.Background(), out.Block.ID); err != nil {
		t.Errorf("block should be durable: %v", err)
	}
}

// --- Update Tests ---

func TestUpdate_TitleOnlyKeepsNotification(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	markSent(t, store, out.Notification)

	title := "Renamed"
	updated, err := svc.Update(ctx, userID, out.Block.ID, UpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Block.Title != "Renamed" {
		t.Errorf("title = %q", updated.Block.Title)
	}
	if updated.Notification == nil || updated.Notification.Status.Kind() != domain.StatusSent {
		t.Errorf("notification should stay sent, got %+v", updated.Notification)
	}
}

func TestUpdate_StartTimeResetsSentNotification(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	markSent(t, store, out.Notification)

	start, end := domain.TimeOfDay{Hour: 11}, domain.TimeOfDay{Hour: 12}
	updated, err := svc.Update(ctx, userID, out.Block.ID, UpdateInput{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Notifications.GetByQuietBlock(ctx, out.Block.ID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	want := time.Date(2025, 3, 10, 10, 50, 0, 0, time.UTC)
	if got.Status.Kind() != domain.StatusPending || !got.ScheduledTime.Equal(want) {
		t.Errorf("notification = %s at %s, want pending at %s", got.Status, got.ScheduledTime, want)
	}
	if got.ID != out.Notification.ID {
		t.Error("reschedule should keep the same record")
	}
	if updated.Notification == nil || !updated.Notification.ScheduledTime.Equal(want) {
		t.Errorf("outcome notification = %+v", updated.Notification)
	}
}

func TestUpdate_CreatesMissingNotificationWhenMovedToFuture(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 8, Minute: 5}, domain.TimeOfDay{Hour: 9}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Notification != nil {
		t.Fatal("precondition: no notification for a past reminder")
	}

	start := domain.TimeOfDay{Hour: 8, Minute: 30}
	if _, err := svc.Update(ctx, userID, out.Block.ID, UpdateInput{StartTime: &start}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Notifications.GetByQuietBlock(ctx, out.Block.ID)
	if err != nil {
		t.Fatalf("expected notification to be created: %v", err)
	}
	if !got.ScheduledTime.Equal(time.Date(2025, 3, 10, 8, 20, 0, 0, time.UTC)) {
		t.Errorf("scheduled = %s", got.ScheduledTime)
	}
}

func TestUpdate_InvalidRangeRejected(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	end := domain.TimeOfDay{Hour: 9}
	if _, err := svc.Update(ctx, userID, out.Block.ID, UpdateInput{EndTime: &end}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

// --- Ownership / Delete ---

func TestOwnership(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	out, err := svc.Create(ctx, uuid.New(), input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := uuid.New()
	if _, err := svc.Get(ctx, stranger, out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Deactivate(ctx, stranger, out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("Deactivate: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, stranger, out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestDelete_RemovesNotification(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, userID, out.Block.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Notifications.GetByQuietBlock(ctx, out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("notification should be removed, got %v", err)
	}
	if _, err := svc.Get(ctx, userID, out.Block.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("block should be removed, got %v", err)
	}
}

func TestDeactivate_HidesFromDefaultList(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	userID := uuid.New()

	out, err := svc.Create(ctx, userID, input(domain.TimeOfDay{Hour: 9}, domain.TimeOfDay{Hour: 10}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Deactivate(ctx, userID, out.Block.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := svc.List(ctx, repo.QuietBlockFilter{UserID: userID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("inactive block listed: %+v", active)
	}
}

// markSent проводит напоминание через claim и отправку, как это делает диспетчер.
func markSent(t *testing.T, store *sqlitestore.Store, n *domain.Notification) {
	t.Helper()
	ctx := context.Background()

	due, err := store.Notifications.ClaimDue(ctx, n.ScheduledTime, n.ScheduledTime.Add(domain.LookaheadWindow), 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("claim: %v (%d records)", err, len(due))
	}
	if err := store.Notifications.Resolve(ctx, n.ID, domain.Sent(n.ScheduledTime), n.ScheduledTime); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}
