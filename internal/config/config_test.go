package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, botTokenEnv, chatIDEnv, threadIDEnv,
		pollSecondsEnv, dbPathEnv, maxAgeDaysEnv, strictMatchEnv, timelineUser,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Poller.Interval() != 180*time.Second {
		t.Fatalf("interval = %s, want 180s", cfg.Poller.Interval())
	}
	if cfg.Poller.MaxAge() != 48*time.Hour {
		t.Fatalf("max age = %s, want 48h", cfg.Poller.MaxAge())
	}
	if cfg.Storage.Path == "" {
		t.Fatal("default storage path missing")
	}
	if len(cfg.Sources) == 0 {
		t.Fatal("default source list missing")
	}

	var timeline int
	for _, src := range cfg.Sources {
		if src.Strategy == "timeline" {
			timeline++
		}
	}
	if timeline != 1 {
		t.Fatalf("expected exactly one timeline source, got %d", timeline)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	raw := `
telegram:
  botToken: file-token
  chatId: "-100123"
poller:
  intervalSeconds: 60
  strictMatch: true
sources:
  - name: only-one
    strategy: rss
    url: https://example.org/feed
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Telegram.BotToken != "file-token" || cfg.Telegram.ChatID != "-100123" {
		t.Fatalf("telegram config not loaded: %+v", cfg.Telegram)
	}
	if cfg.Poller.Interval() != time.Minute || !cfg.Poller.StrictMatch {
		t.Fatalf("poller config not loaded: %+v", cfg.Poller)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "only-one" {
		t.Fatalf("source override not applied: %+v", cfg.Sources)
	}
	// Unset file sections keep their defaults.
	if cfg.Sentiment.PrimaryURL == "" {
		t.Fatal("default sentiment config lost in merge")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	clearEnv(t)

	raw := "telegram:\n  botToken: file-token\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(botTokenEnv, "env-token")
	t.Setenv(chatIDEnv, "55")
	t.Setenv(threadIDEnv, "8")
	t.Setenv(pollSecondsEnv, "45")
	t.Setenv(dbPathEnv, "/tmp/radar.db")
	t.Setenv(strictMatchEnv, "1")
	t.Setenv(timelineUser, "someoneelse")

	cfg := Load()

	if cfg.Telegram.BotToken != "env-token" {
		t.Fatalf("env token not applied: %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "55" || cfg.Telegram.ThreadID != 8 {
		t.Fatalf("telegram env overrides not applied: %+v", cfg.Telegram)
	}
	if cfg.Poller.IntervalSeconds != 45 || !cfg.Poller.StrictMatch {
		t.Fatalf("poller env overrides not applied: %+v", cfg.Poller)
	}
	if cfg.Storage.Path != "/tmp/radar.db" {
		t.Fatalf("storage env override not applied: %q", cfg.Storage.Path)
	}

	for _, src := range cfg.Sources {
		if src.Strategy == "timeline" && src.URL != "someoneelse" {
			t.Fatalf("timeline user override not applied: %q", src.URL)
		}
	}
}

func TestLoadBadFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":::not yaml"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if len(cfg.Sources) == 0 || cfg.Storage.Path == "" {
		t.Fatal("defaults lost on malformed file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Telegram: TelegramConfig{BotToken: "t", ChatID: "c"},
		Storage:  StorageConfig{Path: "p"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"missing chat", func(c *Config) { c.Telegram.ChatID = "" }},
		{"missing storage", func(c *Config) { c.Storage.Path = "" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestMaxAgeResolution(t *testing.T) {
	t.Parallel()

	if got := (PollerConfig{}).MaxAge(); got != 48*time.Hour {
		t.Fatalf("absent ceiling = %s, want 48h", got)
	}

	zero := 0
	if got := (PollerConfig{MaxAgeDays: &zero}).MaxAge(); got != 0 {
		t.Fatalf("explicit zero ceiling = %s, want 0", got)
	}

	neg := -1
	if got := (PollerConfig{MaxAgeDays: &neg}).MaxAge(); got >= 0 {
		t.Fatalf("negative ceiling should stay negative, got %s", got)
	}
}

func TestMaxAgeZeroFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(maxAgeDaysEnv, "0")

	cfg := Load()
	if got := cfg.Poller.MaxAge(); got != 0 {
		t.Fatalf("MAX_AGE_DAYS=0 must yield a zero ceiling, got %s", got)
	}
}

func TestSourceIsEnabled(t *testing.T) {
	t.Parallel()

	if !(SourceConfig{}).IsEnabled() {
		t.Fatal("absent flag must mean enabled")
	}
	off := false
	if (SourceConfig{Enabled: &off}).IsEnabled() {
		t.Fatal("explicit false must disable")
	}
}
