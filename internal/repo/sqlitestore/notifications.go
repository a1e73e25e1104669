package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
)

// NotificationRepo — email-напоминания в SQLite.
type NotificationRepo struct {
	db *sql.DB
}

const notificationColumns = `
	id, quiet_block_id, user_id, scheduled_time, status, error_message, sent_at,
	created_at, updated_at
`

// Upsert создаёт напоминание для quiet block или переносит существующее
// со сбросом в pending.
func (r *NotificationRepo) Upsert(ctx context.Context, n *domain.Notification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		id      uuid.UUID
		created int64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, created_at FROM email_notifications WHERE quiet_block_id = ?", n.QuietBlockID,
	).Scan(&id, &created)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `
			UPDATE email_notifications
			SET scheduled_time = ?, status = 'pending', error_message = NULL,
			    sent_at = NULL, updated_at = ?
			WHERE id = ?
		`, micros(n.ScheduledTime), micros(n.UpdatedAt), id)
		n.ID = id
		n.CreatedAt = fromMicros(created)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO email_notifications (
				id, quiet_block_id, user_id, scheduled_time, status, created_at, updated_at
			)
			VALUES (?, ?, ?, ?, 'pending', ?, ?)
		`, n.ID, n.QuietBlockID, n.UserID, micros(n.ScheduledTime), micros(n.CreatedAt), micros(n.UpdatedAt))
	}
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification: %w", err)
	}
	n.Status = domain.Pending()
	return nil
}

// GetByQuietBlock возвращает напоминание quiet block.
func (r *NotificationRepo) GetByQuietBlock(ctx context.Context, blockID uuid.UUID) (*domain.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM email_notifications WHERE quiet_block_id = ?`, blockID)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// List возвращает напоминания пользователя, новые сверху.
func (r *NotificationRepo) List(ctx context.Context, filter repo.NotificationFilter) ([]domain.Notification, error) {
	filter.Normalize()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM email_notifications
		WHERE user_id = ?
		  AND (? IS NULL OR status = ?)
		ORDER BY scheduled_time DESC
		LIMIT ? OFFSET ?
	`,
		filter.UserID,
		nullString(string(filter.Status)),
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
// с scheduled_time в [now, until] у активных quiet blocks.
// SQLite не поддерживает SKIP LOCKED: атомарность даёт одиночный
// UPDATE ... RETURNING внутри транзакции.
func (r *NotificationRepo) ClaimDue(ctx context.Context, now, until time.Time, limit int) ([]domain.DueNotification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		UPDATE email_notifications
		SET status = 'processing', updated_at = ?
		WHERE id IN (
			SELECT n.id
			FROM email_notifications n
			JOIN quiet_blocks qb ON qb.id = n.quiet_block_id
			WHERE n.status = 'pending'
			  AND qb.is_active = 1
			  AND n.scheduled_time >= ?
			  AND n.scheduled_time <= ?
			ORDER BY n.scheduled_time ASC
			LIMIT ?
		)
		RETURNING id
	`, micros(now), micros(now), micros(until), limit)
	if err != nil {
		return nil, fmt.Errorf("claim due notifications: %w", err)
	}

	var ids []any
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan claimed id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("claim due notifications: %w", err)
	}

	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	rows, err = tx.QueryContext(ctx, `
		SELECT n.id, n.quiet_block_id, n.user_id, n.scheduled_time, n.created_at, n.updated_at,
		       qb.id, qb.user_id, qb.title, qb.description, qb.date, qb.start_time, qb.end_time,
		       qb.is_recurring, qb.recurrence_pattern, qb.is_active, qb.created_at, qb.updated_at,
		       p.id, p.email, p.full_name, p.avatar_url, p.created_at, p.updated_at
		FROM email_notifications n
		LEFT JOIN quiet_blocks qb ON qb.id = n.quiet_block_id
		LEFT JOIN profiles p ON p.id = n.user_id
		WHERE n.id IN (`+placeholders+`)
		ORDER BY n.scheduled_time ASC
	`, ids...)
	if err != nil {
		return nil, fmt.Errorf("load claimed notifications: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return due, nil
}

// Resolve завершает обработку захваченного напоминания.
// Возвращает repo.ErrInvalidState, если запись уже не в processing.
func (r *NotificationRepo) Resolve(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, at time.Time) error {
	kind, errMsg, sentAt := status.Columns()

	result, err := r.db.ExecContext(ctx, `
		UPDATE email_notifications
		SET status = ?, error_message = ?, sent_at = ?, updated_at = ?
		WHERE id = ? AND status = 'processing'
	`, kind, errMsg, nullMicros(sentAt), micros(at), id)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repo.ErrInvalidState
	}
	return nil
}

// FailStale помечает failed записи, застрявшие в processing с момента до claimedBefore.
func (r *NotificationRepo) FailStale(ctx context.Context, claimedBefore time.Time, detail string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE email_notifications
		SET status = 'failed', error_message = ?, updated_at = ?
		WHERE status = 'processing' AND updated_at < ?
	`, detail, micros(at), micros(claimedBefore))
	if err != nil {
		return 0, fmt.Errorf("fail stale notifications: %w", err)
	}
	return result.RowsAffected()
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n                           domain.Notification
		status                      string
		errMsg                      *string
		scheduled, created, updated int64
		sentAt                      *int64
	)
	err := row.Scan(
		&n.ID, &n.QuietBlockID, &n.UserID, &scheduled, &status, &errMsg, &sentAt,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}

	n.ScheduledTime = fromMicros(scheduled)
	n.CreatedAt = fromMicros(created)
	n.UpdatedAt = fromMicros(updated)

	var sent *time.Time
	if sentAt != nil {
		t := fromMicros(*sentAt)
		sent = &t
	}
	n.Status, err = domain.StatusFromColumns(status, errMsg, sent)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanDue(row rowScanner) (*domain.DueNotification, error) {
	var (
		d                           domain.DueNotification
		scheduled, created, updated int64

		blockID, blockUser             *uuid.UUID
		title, description, pattern    *string
		date, start, end               *string
		recurring, active              *bool
		blockCreated, blockUpdated     *int64
		profileID                      *uuid.UUID
		email, fullName, avatarURL     *string
		profileCreated, profileUpdated *int64
	)
	err := row.Scan(
		&d.ID, &d.QuietBlockID, &d.UserID, &scheduled, &created, &updated,
		&blockID, &blockUser, &title, &description, &date, &start, &end,
		&recurring, &pattern, &active, &blockCreated, &blockUpdated,
		&profileID, &email, &fullName, &avatarURL, &profileCreated, &profileUpdated,
	)
	if err != nil {
		return nil, err
	}
	d.ScheduledTime = fromMicros(scheduled)
	d.CreatedAt = fromMicros(created)
	d.UpdatedAt = fromMicros(updated)
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
			CreatedAt:         fromMicros(*blockCreated),
			UpdatedAt:         fromMicros(*blockUpdated),
		}
		if b.Date, err = domain.ParseDate(deref(date)); err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		if b.StartTime, err = domain.ParseTimeOfDay(deref(start)); err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		if b.EndTime, err = domain.ParseTimeOfDay(deref(end)); err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		d.Block = b
	}

	if profileID != nil {
		d.Profile = &domain.Profile{
			ID:        *profileID,
			Email:     deref(email),
			FullName:  deref(fullName),
			AvatarURL: deref(avatarURL),
			CreatedAt: fromMicros(*profileCreated),
			UpdatedAt: fromMicros(*profileUpdated),
		}
	}

	return &d, nil
}
