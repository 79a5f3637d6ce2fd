package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t", AdminID: 42, RunMode: "polling"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Poll_Answer ", "CALLBACK"}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdatePollAnswer || cfg.RateLimit.ExcludeUpdates[1] != UpdateCallback {
		t.Fatalf("exclusions not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"token":   {Telegram: TelegramConfig{AdminID: 1}},
		"admin":   {Telegram: TelegramConfig{Token: "t"}},
		"mode":    {Telegram: TelegramConfig{Token: "t", AdminID: 1, RunMode: "push"}},
		"webhook": {Telegram: TelegramConfig{Token: "t", AdminID: 1, RunMode: "webhook"}},
		"exclude": {Telegram: TelegramConfig{Token: "t", AdminID: 1}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}}},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := Normalize(&cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := strings.Join([]string{
		"telegram:",
		"  token: from-file",
		"  admin_id: 7",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 7 {
		t.Fatalf("admin id = %d, want 7", cfg.Telegram.AdminID)
	}
}
