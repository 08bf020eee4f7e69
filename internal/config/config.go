// Package config loads the application configuration from the
// environment, an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Extract   ExtractConfig   `yaml:"extract"`
}

// TelegramConfig holds bot API settings
type TelegramConfig struct {
	Token         string  `yaml:"token"          env:"TELEGRAM_BOT_TOKEN"`
	AdminUserIDs  []int64 `yaml:"admin_user_ids" env:"ADMIN_USER_IDS"         env-separator:","`
	Debug         bool    `yaml:"debug"          env:"TELEGRAM_DEBUG"         env-default:"false"`
	UpdateTimeout int     `yaml:"update_timeout" env:"TELEGRAM_UPDATE_TIMEOUT" env-default:"60"`
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Type    string `yaml:"type"     env:"DB_TYPE"  env-default:"sqlite"`
	DSN     string `yaml:"dsn"      env:"DB_DSN"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SchedulerConfig holds reminder settings. Hours are inclusive.
type SchedulerConfig struct {
	Enabled   bool   `yaml:"enabled"    env:"ENABLE_SCHEDULER"        env-default:"true"`
	StartHour int    `yaml:"start_hour" env:"NOTIFICATION_START_HOUR" env-default:"8"`
	EndHour   int    `yaml:"end_hour"   env:"NOTIFICATION_END_HOUR"   env-default:"22"`
	Timezone  string `yaml:"timezone"   env:"SCHEDULER_TIMEZONE"      env-default:"UTC"`
}

// ExtractConfig limits document uploads
type ExtractConfig struct {
	MaxDocumentBytes int `yaml:"max_document_bytes" env:"MAX_DOCUMENT_BYTES" env-default:"10485760"`
}

// Load reads configuration. Values from a .env file are exported to the
// environment first (existing variables win). When path is set the YAML
// file is read as well; environment variables override it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges. It does not require a bot token, since
// only the bot command needs one.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.type must be sqlite or postgres (got %q)", c.Database.Type)
	}
	if c.Database.Type == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}

	if err := validHour(c.Scheduler.StartHour); err != nil {
		return fmt.Errorf("scheduler.start_hour: %w", err)
	}
	if err := validHour(c.Scheduler.EndHour); err != nil {
		return fmt.Errorf("scheduler.end_hour: %w", err)
	}
	if c.Scheduler.StartHour > c.Scheduler.EndHour {
		return fmt.Errorf("scheduler.start_hour %d is after end_hour %d", c.Scheduler.StartHour, c.Scheduler.EndHour)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}

	if c.Extract.MaxDocumentBytes <= 0 {
		return fmt.Errorf("extract.max_document_bytes must be > 0 (got %d)", c.Extract.MaxDocumentBytes)
	}
	if c.Telegram.UpdateTimeout <= 0 {
		return fmt.Errorf("telegram.update_timeout must be > 0 (got %d)", c.Telegram.UpdateTimeout)
	}
	return nil
}

// RequireToken reports a missing bot token
func (c *Config) RequireToken() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	return nil
}

// IsAdmin reports whether userID may use operator commands
func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.Telegram.AdminUserIDs, userID)
}

// Location returns the scheduler time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validHour(h int) error {
	if h < 0 || h > 23 {
		return fmt.Errorf("must be between 0 and 23 (got %d)", h)
	}
	return nil
}
