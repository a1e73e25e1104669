package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"STORE_DRIVER":         "sqlite",
		"SQLITE_PATH":          "/tmp/qh.db",
		"CRON_SECRET":          "s3cret",
		"APP_URL":              "https://quiet.example.com/",
		"DISPATCH_CONCURRENCY": "4",
		"CLAIM_TTL":            "15m",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != DriverSQLite || cfg.SQLitePath != "/tmp/qh.db" {
		t.Errorf("store = %s %s", cfg.StoreDriver, cfg.SQLitePath)
	}
	if cfg.CronSecret != "s3cret" {
		t.Errorf("CronSecret = %q", cfg.CronSecret)
	}
	if cfg.AppURL != "https://quiet.example.com" {
		t.Errorf("AppURL should lose trailing slash, got %q", cfg.AppURL)
	}
	if cfg.DispatchConcurrency != 4 {
		t.Errorf("DispatchConcurrency = %d", cfg.DispatchConcurrency)
	}
	if cfg.ClaimTTL != 15*time.Minute {
		t.Errorf("ClaimTTL = %s", cfg.ClaimTTL)
	}
}

func TestApplyEnv_InvalidInt(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(lookupFrom(map[string]string{"DISPATCH_BATCH_SIZE": "many"}))
	if err == nil {
		t.Fatal("expected error for non-numeric DISPATCH_BATCH_SIZE")
	}
}

func TestLoadFile_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiethours.yaml")
	content := "store_driver: sqlite\nsqlite_path: from-file.db\ntimezone: Europe/Moscow\ncron_secret: file-secret\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("QUIETHOURS_CONFIG", path)
	t.Setenv("CRON_SECRET", "env-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SQLitePath != "from-file.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.Timezone != "Europe/Moscow" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.CronSecret != "env-secret" {
		t.Errorf("env should override file, got %q", cfg.CronSecret)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StoreDriver = "mongo"
	cfg.Timezone = "Mars/Olympus"
	cfg.DispatchConcurrency = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateMailer(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateMailer(); err == nil {
		t.Error("expected error without RESEND_API_KEY")
	}
	cfg.ResendAPIKey = "re_test"
	if err := cfg.ValidateMailer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
