package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "NEWSRADAR_CONFIG"
	botTokenEnv    = "TELEGRAM_BOT_TOKEN"
	chatIDEnv      = "TELEGRAM_CHAT_ID"
	threadIDEnv    = "TELEGRAM_THREAD_ID"
	pollSecondsEnv = "POLL_SECONDS"
	dbPathEnv      = "DB_PATH"
	maxAgeDaysEnv  = "MAX_AGE_DAYS"
	strictMatchEnv = "STRICT_MATCH"
	timelineUser   = "TIMELINE_USER"
)

// Config holds high-level settings required across the application.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Storage   StorageConfig   `yaml:"storage"`
	Poller    PollerConfig    `yaml:"poller"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	ThreadID int64  `yaml:"threadId"`
}

// StorageConfig describes the seen-ledger database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// PollerConfig defines cycle cadence and item filtering knobs.
// MaxAgeDays is a pointer so an explicit zero (deliver nothing with a
// past publish date) is distinguishable from an absent value.
type PollerConfig struct {
	IntervalSeconds int  `yaml:"intervalSeconds"`
	MaxAgeDays      *int `yaml:"maxAgeDays"`
	StrictMatch     bool `yaml:"strictMatch"`
}

// Interval resolves the cycle sleep between polls.
func (p PollerConfig) Interval() time.Duration {
	if p.IntervalSeconds <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(p.IntervalSeconds) * time.Second
}

// MaxAge resolves the backfill ceiling for delivered items. Zero is a
// real ceiling, a negative value disables the check, absent falls back
// to two days.
func (p PollerConfig) MaxAge() time.Duration {
	if p.MaxAgeDays == nil {
		return 2 * 24 * time.Hour
	}
	if *p.MaxAgeDays < 0 {
		return -1
	}
	return time.Duration(*p.MaxAgeDays) * 24 * time.Hour
}

// SentimentConfig describes the two inference endpoints of the ensemble.
type SentimentConfig struct {
	PrimaryURL string `yaml:"primaryUrl"`
	BackupURL  string `yaml:"backupUrl"`
	APIKey     string `yaml:"apiKey"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes a single polled source with its strategy.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Strategy string            `yaml:"strategy"`
	URL      string            `yaml:"url"`
	Enabled  *bool             `yaml:"enabled"`
	Options  map[string]string `yaml:"options"`
}

// IsEnabled treats absent as enabled.
func (s SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Validate rejects configurations that cannot start at all.
func (c Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is not set (%s)", botTokenEnv)
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram chat id is not set (%s)", chatIDEnv)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is not set (%s)", dbPathEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(botTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(chatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv(threadIDEnv); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ThreadID = id
		}
	}
	if v := os.Getenv(pollSecondsEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Poller.IntervalSeconds = n
		}
	}
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(maxAgeDaysEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Poller.MaxAgeDays = &n
		}
	}
	if v := os.Getenv(strictMatchEnv); v != "" {
		c.Poller.StrictMatch = v == "true" || v == "1"
	}
	if v := os.Getenv(timelineUser); v != "" {
		for i := range c.Sources {
			if c.Sources[i].Strategy == "timeline" {
				c.Sources[i].URL = v
			}
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Telegram.ThreadID != 0 {
		base.Telegram.ThreadID = override.Telegram.ThreadID
	}

	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}

	if override.Poller.IntervalSeconds > 0 {
		base.Poller.IntervalSeconds = override.Poller.IntervalSeconds
	}
	if override.Poller.MaxAgeDays != nil {
		base.Poller.MaxAgeDays = override.Poller.MaxAgeDays
	}
	if override.Poller.StrictMatch {
		base.Poller.StrictMatch = true
	}

	if override.Sentiment.PrimaryURL != "" {
		base.Sentiment.PrimaryURL = override.Sentiment.PrimaryURL
	}
	if override.Sentiment.BackupURL != "" {
		base.Sentiment.BackupURL = override.Sentiment.BackupURL
	}
	if override.Sentiment.APIKey != "" {
		base.Sentiment.APIKey = override.Sentiment.APIKey
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	maxAgeDays := 2
	return Config{
		Storage: StorageConfig{Path: "./newsradar.db"},
		Poller:  PollerConfig{IntervalSeconds: 180, MaxAgeDays: &maxAgeDays},
		Sentiment: SentimentConfig{
			PrimaryURL: "https://infer.example.org/finbert",
			BackupURL:  "https://infer.example.org/roberta",
		},
		Logging: LoggingConfig{Level: "info"},
		Sources: []SourceConfig{
			{Name: "cepr-vox", Strategy: "rss", URL: "https://cepr.org/rss/vox-content"},
			{Name: "bruegel", Strategy: "rss", URL: "https://www.bruegel.org/rss.xml"},
			{Name: "liberty-street", Strategy: "rss", URL: "https://libertystreeteconomics.newyorkfed.org/feed/"},
			{Name: "bank-underground", Strategy: "rss", URL: "https://bankunderground.co.uk/feed/"},
			{Name: "bis-research", Strategy: "rss", URL: "https://www.bis.org/rss/research.xml"},
			{Name: "econbrowser", Strategy: "rss", URL: "https://econbrowser.com/feed"},
			{Name: "calculated-risk", Strategy: "rss", URL: "https://calculatedriskblog.com/feeds/posts/default?alt=rss"},
			{Name: "ft-markets", Strategy: "rss", URL: "https://www.ft.com/rss/markets"},
			{Name: "cointelegraph", Strategy: "rss", URL: "https://cointelegraph.com/rss"},
			{Name: "coindesk", Strategy: "rss", URL: "https://www.coindesk.com/arc/outboundfeeds/rss"},
			{Name: "cryptoslate", Strategy: "rss", URL: "https://cryptoslate.com/feed/"},
			{Name: "decrypt", Strategy: "rss", URL: "https://decrypt.co/feed"},
			{Name: "bitcoin-magazine", Strategy: "rss", URL: "https://bitcoinmagazine.com/feed"},
			{Name: "theblock", Strategy: "rss", URL: "https://www.theblock.co/rss"},
			{Name: "beincrypto", Strategy: "rss", URL: "https://beincrypto.com/feed/"},
			{Name: "guardian-econ", Strategy: "rss", URL: "https://www.theguardian.com/business/economics/rss"},
			{
				Name:     "wildmeta-x",
				Strategy: "timeline",
				URL:      "wildmetaHQ",
				Options:  map[string]string{"maxPostsPerCycle": "5"},
			},
		},
	}
}
