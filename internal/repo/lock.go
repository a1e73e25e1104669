package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LeaderLock — сессионный advisory lock PostgreSQL для выбора лидера
// среди нескольких экземпляров диспетчера.
//
// Advisory lock привязан к соединению, поэтому LeaderLock держит
// своё соединение из пула, пока лидерство не отпущено.
type LeaderLock struct {
	pool *pgxpool.Pool
	key  int64
	conn *pgxpool.Conn
}

// NewLeaderLock создаёт LeaderLock с ключом key.
func NewLeaderLock(pool *pgxpool.Pool, key int64) *LeaderLock {
	return &LeaderLock{pool: pool, key: key}
}

// TryAcquire пытается стать лидером. У действующего лидера проверяет,
// что соединение с блокировкой живо.
func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		if err := l.conn.Ping(ctx); err != nil {
			l.conn.Release()
			l.conn = nil
			return false, fmt.Errorf("leader conn lost: %w", err)
		}
		return true, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release отпускает лидерство.
func (l *LeaderLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	return nil
}
