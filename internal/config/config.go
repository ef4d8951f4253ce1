package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// Run modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string `envconfig:"BOT_TOKEN"`
	RunMode       string `envconfig:"RUN_MODE" default:"polling"` // polling|webhook
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	TZ           string  `envconfig:"TZ_NAME" default:"Asia/Tokyo"`
	DefaultStart string  `envconfig:"DEFAULT_START" default:"08:00"`
	TargetID     int64   `envconfig:"TARGET_ID"`
	RecipientIDs []int64 `envconfig:"RECIPIENT_IDS"`
	AdminIDs     []int64 `envconfig:"ADMIN_IDS"`

	PromptInterval   time.Duration `envconfig:"PROMPT_INTERVAL" default:"5m"`
	SessionDeadline  time.Duration `envconfig:"SESSION_DEADLINE" default:"60m"`
	TriggerInterval  time.Duration `envconfig:"TRIGGER_INTERVAL" default:"1m"`
	TriggerTolerance time.Duration `envconfig:"TRIGGER_TOLERANCE" default:"5s"`

	StoreBackend  string `envconfig:"STORE_BACKEND" default:"sqlite"` // memory|file|sqlite|redis
	DBPath        string `envconfig:"DB_PATH" default:"./data/okite.db"`
	FilePath      string `envconfig:"FILE_PATH" default:"./data/schedule.json"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SendRate  float64 `envconfig:"SEND_RATE" default:"25"` // messages per second
	SendBurst int     `envconfig:"SEND_BURST" default:"5"`
}

// Load reads environment variables into Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express. It does not require
// transport settings; see ValidateServe.
func (c Config) Validate() error {
	if _, err := domain.ValidateTZ(c.TZ); err != nil {
		return err
	}
	if _, err := domain.ParseClockTime(c.DefaultStart); err != nil {
		return fmt.Errorf("DEFAULT_START: %w", err)
	}
	if c.PromptInterval <= 0 || c.SessionDeadline <= 0 || c.TriggerInterval <= 0 {
		return errors.New("PROMPT_INTERVAL, SESSION_DEADLINE and TRIGGER_INTERVAL must be positive")
	}
	if c.TriggerTolerance < 0 {
		return errors.New("TRIGGER_TOLERANCE must not be negative")
	}
	switch c.StoreBackend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.SendRate <= 0 || c.SendBurst <= 0 {
		return errors.New("SEND_RATE and SEND_BURST must be positive")
	}
	return nil
}

// ValidateServe checks the settings the long-running bot needs on top of
// Validate.
func (c Config) ValidateServe() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.TargetID == 0 {
		return errors.New("TARGET_ID is required")
	}
	if len(c.AdminIDs) == 0 {
		return errors.New("ADMIN_IDS must list at least one admin")
	}
	switch c.RunMode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" || c.WebhookSecret == "" {
			return errors.New("webhook mode requires WEBHOOK_URL and WEBHOOK_SECRET")
		}
	default:
		return fmt.Errorf("unknown RUN_MODE %q", c.RunMode)
	}
	return nil
}

// Location returns the configured time zone. Validate must have passed.
func (c Config) Location() *time.Location {
	loc, err := domain.ValidateTZ(c.TZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Start returns the default wakeup time. Validate must have passed.
func (c Config) Start() domain.ClockTime {
	t, err := domain.ParseClockTime(c.DefaultStart)
	if err != nil {
		return domain.DefaultStart
	}
	return t
}
