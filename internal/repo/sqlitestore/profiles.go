package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
)

// ProfileRepo — профили пользователей в SQLite.
type ProfileRepo struct {
	db *sql.DB
}

// Upsert создаёт профиль или обновляет email и непустые поля существующего.
// Возвращает true, если профиль был создан.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM profiles WHERE id = ?)", p.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check profile: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET email = ?, full_name = COALESCE(?, full_name),
			    avatar_url = COALESCE(?, avatar_url), updated_at = ?
			WHERE id = ?
		`, p.Email, nullString(p.FullName), nullString(p.AvatarURL), micros(p.UpdatedAt), p.ID)
	} else {
		p.CreatedAt = p.UpdatedAt
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.Email, nullString(p.FullName), nullString(p.AvatarURL), micros(p.CreatedAt), micros(p.UpdatedAt))
	}
	if err != nil {
		return false, fmt.Errorf("upsert profile: %w", err)
	}

	stored, err := getProfile(ctx, tx, p.ID)
	if err != nil {
		return false, err
	}
	*p = *stored

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit profile: %w", err)
	}
	return !exists, nil
}

// GetByID возвращает профиль по ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return getProfile(ctx, r.db, id)
}

// queryer — общее у *sql.DB и *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getProfile(ctx context.Context, q queryer, id uuid.UUID) (*domain.Profile, error) {
	var (
		p                domain.Profile
		fullName, avatar *string
		created, updated int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, email, full_name, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Email, &fullName, &avatar, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.FullName = deref(fullName)
	p.AvatarURL = deref(avatar)
	p.CreatedAt = fromMicros(created)
	p.UpdatedAt = fromMicros(updated)
	return &p, nil
}
