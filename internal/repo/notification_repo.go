package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/QuietHours/internal/domain"
)

// NotificationRepo — репозиторий email-напоминаний.
type NotificationRepo struct {
	pool *pgxpool.Pool
}

// NewNotificationRepo создаёт новый NotificationRepo.
func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

const notificationColumns = `
	id, quiet_block_id, user_id, scheduled_time, status, error_message, sent_at,
	created_at, updated_at
`

// Upsert создаёт напоминание для quiet block или переносит существующее.
// Перенос сбрасывает статус в pending и очищает sent_at и error_message.
// После вызова n.ID и n.CreatedAt соответствуют сохранённой записи.
func (r *NotificationRepo) Upsert(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO email_notifications (
			id, quiet_block_id, user_id, scheduled_time, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		ON CONFLICT (quiet_block_id) DO UPDATE
		SET scheduled_time = EXCLUDED.scheduled_time,
		    status         = 'pending',
		    error_message  = NULL,
		    sent_at        = NULL,
		    updated_at     = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		n.ID,
		n.QuietBlockID,
		n.UserID,
		n.ScheduledTime,
		n.CreatedAt,
		n.UpdatedAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	n.Status = domain.Pending()
	return nil
}

// GetByQuietBlock возвращает напоминание quiet block.
func (r *NotificationRepo) GetByQuietBlock(ctx context.Context, blockID uuid.UUID) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM email_notifications WHERE quiet_block_id = $1`

	n, err := scanNotification(r.pool.QueryRow(ctx, query, blockID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// List возвращает напоминания пользователя, новые сверху.
func (r *NotificationRepo) List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	filter.Normalize()

	query := `
		SELECT ` + notificationColumns + `
		FROM email_notifications
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY scheduled_time DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.UserID,
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, *n)
	}
	return list, rows.Err()
}

// ClaimDue атомарно переводит в processing pending-напоминания
// с scheduled_time в [now, until] у активных quiet blocks и возвращает
// их вместе с quiet block и профилем владельца.
//
// FOR UPDATE SKIP LOCKED гарантирует, что параллельные диспетчеры
// не захватят одну и ту же запись.
func (r *NotificationRepo) ClaimDue(ctx context.Context, now, until time.Time, limit int) ([]domain.DueNotification, error) {
	query := `
		WITH claimed AS (
			UPDATE email_notifications
			SET status = 'processing', updated_at = $1
			WHERE id IN (
				SELECT n.id
				FROM email_notifications n
				JOIN quiet_blocks qb ON qb.id = n.quiet_block_id
				WHERE n.status = 'pending'
				  AND qb.is_active
				  AND n.scheduled_time >= $1
				  AND n.scheduled_time <= $2
				ORDER BY n.scheduled_time ASC
				LIMIT $3
				FOR UPDATE OF n SKIP LOCKED
			)
			RETURNING id, quiet_block_id, user_id, scheduled_time, created_at, updated_at
		)
		SELECT c.id, c.quiet_block_id, c.user_id, c.scheduled_time, c.created_at, c.updated_at,
		       qb.id, qb.user_id, qb.title, qb.description, qb.date::text, qb.start_time::text,
		       qb.end_time::text, qb.is_recurring, qb.recurrence_pattern, qb.is_active,
		       qb.created_at, qb.updated_at,
		       p.id, p.email, p.full_name, p.avatar_url, p.created_at, p.updated_at
		FROM claimed c
		LEFT JOIN quiet_blocks qb ON qb.id = c.quiet_block_id
		LEFT JOIN profiles p ON p.id = c.user_id
		ORDER BY c.scheduled_time ASC
	`
	rows, err := r.pool.Query(ctx, query, now, until, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due notifications: %w", err)
	}
	defer rows.Close()

	var due []domain.DueNotification
	for rows.Next() {
		d, err := scanDue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due notification: %w", err)
		}
		due = append(due, *d)
	}
	return due, rows.Err()
}

// Resolve завершает обработку захваченного напоминания: Sent, Failed
// или Pending (вернуть запись в очередь). Если запись уже не в processing
// (например, quiet block перенесли во время отправки), возвращает ErrInvalidState.
func (r *NotificationRepo) Resolve(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, at time.Time) error {
	kind, errMsg, sentAt := status.Columns()

	query := `
		UPDATE email_notifications
		SET status = $2, error_message = $3, sent_at = $4, updated_at = $5
		WHERE id = $1 AND status = 'processing'
	`
	result, err := r.pool.Exec(ctx, query, id, kind, errMsg, sentAt, at)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// FailStale помечает failed записи, застрявшие в processing дольше claimedBefore
// (диспетчер упал между захватом и записью результата).
func (r *NotificationRepo) FailStale(ctx context.Context, claimedBefore time.Time, detail string, at time.Time) (int64, error) {
	query := `
		UPDATE email_notifications
		SET status = 'failed', error_message = $2, updated_at = $3
		WHERE status = 'processing' AND updated_at < $1
	`
	result, err := r.pool.Exec(ctx, query, claimedBefore, detail, at)
	if err != nil {
		return 0, fmt.Errorf("fail stale notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

// scanNotification сканирует строку с колонками notificationColumns.
func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n      domain.Notification
		status string
		errMsg *string
		sentAt *time.Time
	)
	err := row.Scan(
		&n.ID, &n.QuietBlockID, &n.UserID, &n.ScheduledTime, &status, &errMsg, &sentAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Status, err = domain.StatusFromColumns(status, errMsg, sentAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// scanDue сканирует строку ClaimDue. Колонки quiet block и профиля
// приходят из LEFT JOIN и могут быть NULL.
func scanDue(row pgx.Row) (*domain.DueNotification, error) {
	var (
		d domain.DueNotification

		blockID, blockUser             *uuid.UUID
		title, description, pattern    *string
		date, start, end               *string
		recurring, active              *bool
		blockCreated, blockUpdated     *time.Time
		profileID                      *uuid.UUID
		email, fullName, avatarURL     *string
		profileCreated, profileUpdated *time.Time
	)
	err := row.Scan(
		&d.ID, &d.QuietBlockID, &d.UserID, &d.ScheduledTime, &d.CreatedAt, &d.UpdatedAt,
		&blockID, &blockUser, &title, &description, &date, &start, &end,
		&recurring, &pattern, &active, &blockCreated, &blockUpdated,
		&profileID, &email, &fullName, &avatarURL, &profileCreated, &profileUpdated,
	)
	if err != nil {
		return nil, err
	}
	d.Status = domain.Processing()

	if blockID != nil {
		b := &domain.QuietBlock{
			ID:                *blockID,
			UserID:            *blockUser,
			Title:             deref(title),
			Description:       deref(description),
			IsRecurring:       *recurring,
			RecurrencePattern: deref(pattern),
			IsActive:          *active,
			CreatedAt:         *blockCreated,
			UpdatedAt:         *blockUpdated,
		}
		if err := parseSchedule(b, deref(date), deref(start), deref(end)); err != nil {
			return nil, err
		}
		d.Block = b
	}

	if profileID != nil {
		d.Profile = &domain.Profile{
			ID:        *profileID,
			Email:     deref(email),
			FullName:  deref(fullName),
			AvatarURL: deref(avatarURL),
			CreatedAt: *profileCreated,
			UpdatedAt: *profileUpdated,
		}
	}

	return &d, nil
}
