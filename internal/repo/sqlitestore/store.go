// Package sqlitestore — хранилище QuietHours на SQLite (modernc.org/sqlite)
// для однопроцессного развёртывания и тестов.
//
// Репозитории повторяют контракт PostgreSQL-реализации из пакета repo
// и возвращают те же ошибки (repo.ErrNotFound и т.д.).
//
// Время хранится как INTEGER (микросекунды Unix, UTC), дата и время
// суток quiet block — как TEXT ("2006-01-02", "15:04").
// Пул ограничен одним соединением: SQLite сериализует запись,
// а ":memory:" существует только внутри одного соединения.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaiso/QuietHours/internal/repo"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

// Store — набор SQLite-репозиториев поверх одного *sql.DB.
type Store struct {
	db *sql.DB

	Profiles      *ProfileRepo
	QuietBlocks   *QuietBlockRepo
	Notifications *NotificationRepo
}

// Open открывает (или создаёт) базу по пути path и применяет миграции.
// path ":memory:" открывает базу в памяти.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:            db,
		Profiles:      &ProfileRepo{db: db},
		QuietBlocks:   &QuietBlockRepo{db: db},
		Notifications: &NotificationRepo{db: db},
	}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping проверяет доступность базы (для /healthz).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate применяет недостающие миграции, каждую в своей транзакции.
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	migrations, err := repo.CollectMigrations(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("collect migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, m.Path)
		if err != nil {
			return fmt.Errorf("read migration %06d: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %06d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %06d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			m.Version, micros(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %06d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %06d: %w", m.Version, err)
		}

		logger.Info("migration applied", "version", m.Version, "name", m.Name, "driver", "sqlite")
	}

	return nil
}

// micros переводит время в микросекунды Unix.
func micros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// fromMicros — обратное к micros.
func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// nullMicros — micros для необязательного времени.
func nullMicros(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := micros(*t)
	return &v
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
