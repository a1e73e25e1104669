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

// ProfileRepo — репозиторий профилей пользователей.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

// NewProfileRepo создаёт новый ProfileRepo.
func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Upsert создаёт профиль или обновляет email и непустые поля существующего.
// Возвращает true, если профиль был создан.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) (bool, error) {
	query := `
		INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE
		SET email      = EXCLUDED.email,
		    full_name  = COALESCE(EXCLUDED.full_name, profiles.full_name),
		    avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
		    updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted, created_at, full_name, avatar_url
	`
	var (
		inserted  bool
		fullName  *string
		avatarURL *string
	)
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.Email,
		nullString(p.FullName),
		nullString(p.AvatarURL),
		p.UpdatedAt,
	).Scan(&inserted, &p.CreatedAt, &fullName, &avatarURL)
	if err != nil {
		return false, fmt.Errorf("upsert profile: %w", err)
	}

	p.FullName = deref(fullName)
	p.AvatarURL = deref(avatarURL)
	return inserted, nil
}

// GetByID возвращает профиль по ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, email, full_name, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var (
		p         domain.Profile
		fullName  *string
		avatarURL *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &fullName, &avatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.FullName = deref(fullName)
	p.AvatarURL = deref(avatarURL)
	return &p, nil
}
