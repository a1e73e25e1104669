package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
)

// QuietBlockRepo — quiet blocks в SQLite.
type QuietBlockRepo struct {
	db *sql.DB
}

const quietBlockColumns = `
	id, user_id, title, description, date, start_time, end_time,
	is_recurring, recurrence_pattern, is_active, created_at, updated_at
`

// Create создаёт quiet block.
func (r *QuietBlockRepo) Create(ctx context.Context, b *domain.QuietBlock) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quiet_blocks (`+quietBlockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.UserID,
		b.Title,
		nullString(b.Description),
		b.Date.String(),
		b.StartTime.String(),
		b.EndTime.String(),
		b.IsRecurring,
		nullString(b.RecurrencePattern),
		b.IsActive,
		micros(b.CreatedAt),
		micros(b.UpdatedAt),
	)
	if err != nil {
		if isConstraintUnique(err) {
			return repo.ErrAlreadyExists
		}
		return fmt.Errorf("insert quiet block: %w", err)
	}
	return nil
}

// GetByID возвращает quiet block по ID.
func (r *QuietBlockRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuietBlock, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+quietBlockColumns+` FROM quiet_blocks WHERE id = ?`, id)

	b, err := scanQuietBlock(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get quiet block: %w", err)
	}
	return b, nil
}

// List возвращает quiet blocks пользователя по дате и времени начала.
func (r *QuietBlockRepo) List(ctx context.Context, filter repo.QuietBlockFilter) ([]domain.QuietBlock, error) {
	filter.Normalize()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+quietBlockColumns+`
		FROM quiet_blocks
		WHERE user_id = ?
		  AND (? OR is_active = 1)
		ORDER BY date ASC, start_time ASC
		LIMIT ? OFFSET ?
	`, filter.UserID, filter.IncludeInactive, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list quiet blocks: %w", err)
	}
	defer rows.Close()

	var blocks []domain.QuietBlock
	for rows.Next() {
		b, err := scanQuietBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiet block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// Update сохраняет изменяемые поля quiet block.
func (r *QuietBlockRepo) Update(ctx context.Context, b *domain.QuietBlock) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quiet_blocks
		SET title = ?, description = ?, date = ?, start_time = ?, end_time = ?,
		    is_recurring = ?, recurrence_pattern = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		b.Title,
		nullString(b.Description),
		b.Date.String(),
		b.StartTime.String(),
		b.EndTime.String(),
		b.IsRecurring,
		nullString(b.RecurrencePattern),
		b.IsActive,
		micros(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update quiet block: %w", err)
	}
	return expectOne(result)
}

// Delete удаляет quiet block и его напоминание в одной транзакции.
func (r *QuietBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM email_notifications WHERE quiet_block_id = ?", id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM quiet_blocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete quiet block: %w", err)
	}
	if err := expectOne(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// rowScanner — общее у *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuietBlock(row rowScanner) (*domain.QuietBlock, error) {
	var (
		b                    domain.QuietBlock
		description, pattern *string
		date, start, end     string
		created, updated     int64
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &description, &date, &start, &end,
		&b.IsRecurring, &pattern, &b.IsActive, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	b.Description = deref(description)
	b.RecurrencePattern = deref(pattern)
	b.CreatedAt = fromMicros(created)
	b.UpdatedAt = fromMicros(updated)

	if b.Date, err = domain.ParseDate(date); err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	if b.StartTime, err = domain.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	if b.EndTime, err = domain.ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("parse end_time: %w", err)
	}
	return &b, nil
}

// expectOne возвращает repo.ErrNotFound, если запрос не затронул ни одной строки.
func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// isConstraintUnique распознаёт нарушение UNIQUE/PRIMARY KEY по тексту ошибки SQLite.
func isConstraintUnique(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY")
}
