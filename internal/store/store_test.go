package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shaiso/QuietHours/internal/config"
	"github.com/shaiso/QuietHours/internal/telemetry"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "quiethours.db")

	s, err := Open(context.Background(), cfg, telemetry.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if s.Pool != nil {
		t.Error("sqlite store must not expose a pg pool")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
	if s.Profiles == nil || s.QuietBlocks == nil || s.Notifications == nil {
		t.Error("repositories not wired")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = "mongo"

	if _, err := Open(context.Background(), cfg, telemetry.Discard()); err == nil {
		t.Fatal("expected error")
	}
}
