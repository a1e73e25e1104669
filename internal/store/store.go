// Package store выбирает хранилище по конфигурации: PostgreSQL (pgx)
// или встроенный SQLite. Обе реализации дают одинаковые репозитории.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/QuietHours/internal/config"
	"github.com/shaiso/QuietHours/internal/domain"
	"github.com/shaiso/QuietHours/internal/repo"
	"github.com/shaiso/QuietHours/internal/repo/sqlitestore"
)

// Profiles — репозиторий профилей.
type Profiles interface {
	Upsert(ctx context.Context, p *domain.Profile) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// QuietBlocks — репозиторий quiet blocks.
type QuietBlocks interface {
	Create(ctx context.Context, b *domain.QuietBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QuietBlock, error)
	List(ctx context.Context, filter repo.QuietBlockFilter) ([]domain.QuietBlock, error)
	Update(ctx context.Context, b *domain.QuietBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifications — репозиторий напоминаний.
type Notifications interface {
	Upsert(ctx context.Context, n *domain.Notification) error
	GetByQuietBlock(ctx context.Context, blockID uuid.UUID) (*domain.Notification, error)
	List(ctx context.Context, filter repo.NotificationFilter) ([]domain.Notification, error)
	ClaimDue(ctx context.Context, now, until time.Time, limit int) ([]domain.DueNotification, error)
	Resolve(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, at time.Time) error
	FailStale(ctx context.Context, claimedBefore time.Time, detail string, at time.Time) (int64, error)
}

// Store — открытое хранилище.
type Store struct {
	Driver        string
	Profiles      Profiles
	QuietBlocks   QuietBlocks
	Notifications Notifications

	// Pool — пул PostgreSQL; nil для SQLite.
	Pool *pgxpool.Pool

	ping  func(ctx context.Context) error
	close func()
}

// Open открывает хранилище и применяет миграции.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Driver:        cfg.StoreDriver,
			Profiles:      repo.NewProfileRepo(pool),
			QuietBlocks:   repo.NewQuietBlockRepo(pool),
			Notifications: repo.NewNotificationRepo(pool),
			Pool:          pool,
			ping:          pool.Ping,
			close:         pool.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:        cfg.StoreDriver,
			Profiles:      s.Profiles,
			QuietBlocks:   s.QuietBlocks,
			Notifications: s.Notifications,
			ping:          s.Ping,
			close: func() {
				if err := s.Close(); err != nil {
					logger.Warn("failed to close sqlite store", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Ping проверяет доступность хранилища.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close закрывает хранилище.
func (s *Store) Close() {
	s.close()
}
