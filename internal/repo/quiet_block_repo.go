package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/QuietHours/internal/domain"
)

// QuietBlockRepo — репозиторий quiet blocks.
type QuietBlockRepo struct {
	pool *pgxpool.Pool
}

// NewQuietBlockRepo создаёт новый QuietBlockRepo.
func NewQuietBlockRepo(pool *pgxpool.Pool) *QuietBlockRepo {
	return &QuietBlockRepo{pool: pool}
}

const quietBlockColumns = `
	id, user_id, title, description, date::text, start_time::text, end_time::text,
	is_recurring, recurrence_pattern, is_active, created_at, updated_at
`

// Create создаёт quiet block.
func (r *QuietBlockRepo) Create(ctx context.Context, b *domain.QuietBlock) error {
	query := `
		INSERT INTO quiet_blocks (
			id, user_id, title, description, date, start_time, end_time,
			is_recurring, recurrence_pattern, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7::time, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
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
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert quiet block: %w", err)
	}
	return nil
}

// GetByID возвращает quiet block по ID.
func (r *QuietBlockRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuietBlock, error) {
	query := `SELECT ` + quietBlockColumns + ` FROM quiet_blocks WHERE id = $1`

	b, err := scanQuietBlock(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quiet block: %w", err)
	}
	return b, nil
}

// List возвращает quiet blocks пользователя по дате и времени начала.
func (r *QuietBlockRepo) List(ctx context.Context, filter QuietBlockFilter) ([]domain.QuietBlock, error) {
	filter.Normalize()

	query := `
		SELECT ` + quietBlockColumns + `
		FROM quiet_blocks
		WHERE user_id = $1
		  AND ($2 OR is_active)
		ORDER BY date ASC, start_time ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.IncludeInactive, filter.Limit, filter.Offset)
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
	query := `
		UPDATE quiet_blocks
		SET title = $2, description = $3, date = $4::date, start_time = $5::time,
		    end_time = $6::time, is_recurring = $7, recurrence_pattern = $8,
		    is_active = $9, updated_at = $10
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		nullString(b.Description),
		b.Date.String(),
		b.StartTime.String(),
		b.EndTime.String(),
		b.IsRecurring,
		nullString(b.RecurrencePattern),
		b.IsActive,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quiet block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет quiet block. Напоминание удаляется каскадно (FK ON DELETE CASCADE).
func (r *QuietBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM quiet_blocks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete quiet block: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanQuietBlock сканирует строку с колонками quietBlockColumns.
func scanQuietBlock(row pgx.Row) (*domain.QuietBlock, error) {
	var (
		b                    domain.QuietBlock
		description, pattern *string
		date, start, end     string
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &description, &date, &start, &end,
		&b.IsRecurring, &pattern, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Description = deref(description)
	b.RecurrencePattern = deref(pattern)
	if err := parseSchedule(&b, date, start, end); err != nil {
		return nil, err
	}
	return &b, nil
}

// parseSchedule разбирает текстовые колонки даты и времени.
func parseSchedule(b *domain.QuietBlock, date, start, end string) error {
	var err error
	if b.Date, err = domain.ParseDate(date); err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	if b.StartTime, err = domain.ParseTimeOfDay(start); err != nil {
		return fmt.Errorf("parse start_time: %w", err)
	}
	if b.EndTime, err = domain.ParseTimeOfDay(end); err != nil {
		return fmt.Errorf("parse end_time: %w", err)
	}
	return nil
}
