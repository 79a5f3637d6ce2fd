// Package config holds the group bot configuration: the shared transport
// settings plus the group, scheduler, quiz and storage sections.
package config

import (
	"fmt"
	"strings"
	"time"
	// group timezones must resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/groupbot/core/config"
	coredatabase "github.com/m3rciful/groupbot/core/database"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = coredatabase.DriverPostgres
	StorageSQLite   = coredatabase.DriverSQLite
	StorageRedis    = "redis"
	StorageFirebase = "firebase"
)

// GroupConfig identifies the managed group.
type GroupConfig struct {
	ID         int64  `yaml:"id" envconfig:"GROUP_CHAT_ID"`
	InviteLink string `yaml:"invite_link" envconfig:"GROUP_INVITE_LINK"`
	// Timezone is an IANA name used for reminders, schedules and timestamps.
	Timezone string `yaml:"timezone" envconfig:"GROUP_TIMEZONE"`
}

// SchedulerConfig tunes the deferred message loop.
type SchedulerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds" envconfig:"SCHEDULER_INTERVAL_SECONDS"`
	MaxAttempts     int `yaml:"max_attempts" envconfig:"SCHEDULER_MAX_ATTEMPTS"`
	SendsPerMinute  int `yaml:"sends_per_minute" envconfig:"SCHEDULER_SENDS_PER_MINUTE"`
}

// QuizConfig controls quiz session retention.
type QuizConfig struct {
	RetentionHours int `yaml:"retention_hours" envconfig:"QUIZ_RETENTION_HOURS"`
}

// RedisConfig configures the redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// FirebaseConfig configures the Realtime Database store.
type FirebaseConfig struct {
	DatabaseURL     string `yaml:"database_url" envconfig:"FIREBASE_DATABASE_URL"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"FIREBASE_CREDENTIALS_FILE"`
	Root            string `yaml:"root" envconfig:"FIREBASE_ROOT"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver   string              `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	SQL      coredatabase.Config `yaml:"sql"`
	Redis    RedisConfig         `yaml:"redis"`
	Firebase FirebaseConfig      `yaml:"firebase"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Group     GroupConfig     `yaml:"group"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Quiz      QuizConfig      `yaml:"quiz"`
	Storage   StorageConfig   `yaml:"storage"`

	location *time.Location
}

// CoreConfig exposes the transport configuration to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Location returns the loaded group timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// SchedulerInterval returns the scan period.
func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSeconds) * time.Second
}

// QuizRetention returns how long a finished quiz stays available for /winners.
func (c *Config) QuizRetention() time.Duration {
	return time.Duration(c.Quiz.RetentionHours) * time.Hour
}

// SQLConfig returns the SQL settings when a SQL driver is selected, nil otherwise.
func (c *Config) SQLConfig() *coredatabase.Config {
	switch c.Storage.Driver {
	case StoragePostgres, StorageSQLite:
		sql := c.Storage.SQL
		sql.Driver = c.Storage.Driver
		return &sql
	}
	return nil
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	if cfg.Group.ID == 0 {
		return fmt.Errorf("group.id is required")
	}
	if strings.TrimSpace(cfg.Group.Timezone) == "" {
		cfg.Group.Timezone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(cfg.Group.Timezone)
	if err != nil {
		return fmt.Errorf("group.timezone %q: %w", cfg.Group.Timezone, err)
	}
	cfg.location = loc

	if cfg.Scheduler.IntervalSeconds == 0 {
		cfg.Scheduler.IntervalSeconds = 30
	}
	if cfg.Scheduler.IntervalSeconds < 1 {
		return fmt.Errorf("scheduler.interval_seconds must be >= 1")
	}
	if cfg.Scheduler.MaxAttempts == 0 {
		cfg.Scheduler.MaxAttempts = 3
	}
	if cfg.Scheduler.MaxAttempts < 1 {
		return fmt.Errorf("scheduler.max_attempts must be >= 1")
	}
	if cfg.Scheduler.SendsPerMinute == 0 {
		cfg.Scheduler.SendsPerMinute = 20
	}
	if cfg.Scheduler.SendsPerMinute < 1 {
		return fmt.Errorf("scheduler.sends_per_minute must be >= 1")
	}
	if cfg.Quiz.RetentionHours == 0 {
		cfg.Quiz.RetentionHours = 24
	}
	if cfg.Quiz.RetentionHours < 1 {
		return fmt.Errorf("quiz.retention_hours must be >= 1")
	}

	return normalizeStorage(&cfg.Storage)
}

func normalizeStorage(s *StorageConfig) error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = StorageMemory
	}
	switch s.Driver {
	case StorageMemory:
	case StoragePostgres:
		if s.SQL.Host == "" || s.SQL.Name == "" {
			return fmt.Errorf("storage.sql.host and storage.sql.name are required for postgres")
		}
		if s.SQL.Port == "" {
			s.SQL.Port = "5432"
		}
		if s.SQL.SSLMode == "" {
			s.SQL.SSLMode = "disable"
		}
	case StorageSQLite:
		if s.SQL.Path == "" {
			s.SQL.Path = "groupbot.db"
		}
	case StorageRedis:
		if s.Redis.Addr == "" {
			s.Redis.Addr = "localhost:6379"
		}
		if s.Redis.Prefix == "" {
			s.Redis.Prefix = "groupbot"
		}
	case StorageFirebase:
		if s.Firebase.DatabaseURL == "" {
			return fmt.Errorf("storage.firebase.database_url is required for firebase")
		}
		if s.Firebase.Root == "" {
			s.Firebase.Root = "groupbot"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: memory, postgres, sqlite3, redis, firebase", s.Driver)
	}
	return nil
}
