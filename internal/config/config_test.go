package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/groupbot/core/config"
)

func baseConfig() Config {
	return Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: 1}},
		Group:  GroupConfig{ID: -100123},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Group.Timezone != "Asia/Kolkata" {
		t.Fatalf("timezone = %q", cfg.Group.Timezone)
	}
	if cfg.SchedulerInterval() != 30*time.Second || cfg.Scheduler.MaxAttempts != 3 || cfg.Scheduler.SendsPerMinute != 20 {
		t.Fatalf("scheduler defaults not applied: %+v", cfg.Scheduler)
	}
	if cfg.QuizRetention() != 24*time.Hour {
		t.Fatalf("retention = %v", cfg.QuizRetention())
	}
	if cfg.Storage.Driver != StorageMemory || cfg.SQLConfig() != nil {
		t.Fatalf("storage default = %q", cfg.Storage.Driver)
	}
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	if offset != 5*3600+1800 {
		t.Fatalf("location offset = %d", offset)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"group":    func(c *Config) { c.Group.ID = 0 },
		"timezone": func(c *Config) { c.Group.Timezone = "Mars/Olympus" },
		"attempts": func(c *Config) { c.Scheduler.MaxAttempts = -1 },
		"driver":   func(c *Config) { c.Storage.Driver = "mongo" },
		"postgres": func(c *Config) { c.Storage.Driver = StoragePostgres },
		"firebase": func(c *Config) { c.Storage.Driver = StorageFirebase },
	}
	for name, mutate := range cases {
		cfg := baseConfig()
		mutate(&cfg)
		if err := Normalize(&cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSQLConfigCarriesDriver(t *testing.T) {
	cfg := baseConfig()
	cfg.Storage.Driver = "SQLite3"
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	sql := cfg.SQLConfig()
	if sql == nil || sql.Driver != StorageSQLite || sql.Path != "groupbot.db" {
		t.Fatalf("sql config = %+v", sql)
	}
}

func TestLoadInlineCoreAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := strings.Join([]string{
		"telegram:",
		"  token: file-token",
		"  admin_id: 42",
		"group:",
		"  id: -1001",
		"  invite_link: https://t.me/+abc",
		"storage:",
		"  driver: redis",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SCHEDULER_INTERVAL_SECONDS", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.AdminID != 42 || cfg.Group.ID != -1001 {
		t.Fatalf("inline core not decoded: %+v", cfg)
	}
	if cfg.SchedulerInterval() != 5*time.Second {
		t.Fatalf("env override ignored: %v", cfg.SchedulerInterval())
	}
	if cfg.Storage.Redis.Addr != "localhost:6379" || cfg.Storage.Redis.Prefix != "groupbot" {
		t.Fatalf("redis defaults: %+v", cfg.Storage.Redis)
	}
}
