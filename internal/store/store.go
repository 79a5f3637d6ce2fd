// Package store persists the bot's mutable state between restarts and keeps
// an audit trail of admin and member activity.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/groupbot/core/logger"
	"github.com/m3rciful/groupbot/internal/config"
	"github.com/m3rciful/groupbot/internal/schedule"
	"github.com/m3rciful/groupbot/internal/settings"
)

// Migrations holds the SQL schema, one subdirectory per driver.
//
//go:embed migrations
var Migrations embed.FS

// MigrationsDir is the root of Migrations.
const MigrationsDir = "migrations"

// ErrUnknownDriver is returned by Open for unsupported storage drivers.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Snapshot is everything that survives a restart.
type Snapshot struct {
	QuizDetails     settings.QuizDetails `json:"quiz_details"`
	WelcomeTemplate string               `json:"welcome_template"`
	Scheduled       []schedule.Message   `json:"scheduled"`
	Polls           []schedule.PollClose `json:"polls"`
}

// Activity is one audit log entry.
type Activity struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Kind     string    `json:"kind" db:"kind"`
	UserID   int64     `json:"user_id" db:"user_id"`
	UserName string    `json:"user_name" db:"user_name"`
	Detail   string    `json:"detail" db:"detail"`
	At       time.Time `json:"at" db:"created_at"`
}

// NewActivity returns an entry with a fresh id.
func NewActivity(kind string, userID int64, userName, detail string, at time.Time) Activity {
	return Activity{
		ID:       uuid.New(),
		Kind:     kind,
		UserID:   userID,
		UserName: userName,
		Detail:   detail,
		At:       at,
	}
}

// Store is a persistence backend.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	LogActivity(ctx context.Context, a Activity) error
	// RecentActivity returns up to limit entries, newest first.
	RecentActivity(ctx context.Context, limit int) ([]Activity, error)
	Close() error
}

// Open returns the backend selected by cfg.Storage.Driver. db must be set for SQL drivers.
func Open(ctx context.Context, cfg *config.Config, db *sqlx.DB) (Store, error) {
	var (
		s   Store
		err error
	)
	driver := cfg.Storage.Driver
	switch driver {
	case config.StorageMemory, "":
		s = NewMemory()
	case config.StoragePostgres, config.StorageSQLite:
		if db == nil {
			return nil, fmt.Errorf("store: %s selected without a database connection", driver)
		}
		s = NewSQL(db)
	case config.StorageRedis:
		s, err = NewRedis(ctx, cfg.Storage.Redis)
	case config.StorageFirebase:
		s, err = NewFirebase(ctx, cfg.Storage.Firebase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}
	logger.STORE.Info("store opened",
		slog.String("event", "store.open"),
		slog.String("driver", driver),
	)
	return WithLogging(s, driver), nil
}

// WithLogging wraps s so every call is logged with its duration and outcome.
func WithLogging(s Store, driver string) Store {
	return &logged{next: s, driver: driver}
}

type logged struct {
	next   Store
	driver string
}

func (l *logged) log(ctx context.Context, event string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	base := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("driver", l.driver),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		level = slog.LevelWarn
		base = append(base, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.STORE, level, event, append(base, attrs...)...)
}

func (l *logged) Load(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	snap, err := l.next.Load(ctx)
	l.log(ctx, "store.load", start, err,
		slog.Int("messages", len(snap.Scheduled)),
		slog.Int("count", len(snap.Polls)),
	)
	return snap, err
}

func (l *logged) Save(ctx context.Context, snap Snapshot) error {
	start := time.Now()
	err := l.next.Save(ctx, snap)
	l.log(ctx, "store.save", start, err,
		slog.Int("messages", len(snap.Scheduled)),
		slog.Int("count", len(snap.Polls)),
	)
	return err
}

func (l *logged) LogActivity(ctx context.Context, a Activity) error {
	start := time.Now()
	err := l.next.LogActivity(ctx, a)
	l.log(ctx, "store.activity", start, err,
		slog.String("payload", a.Kind),
		slog.Int64("user_id", a.UserID),
	)
	return err
}

func (l *logged) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	start := time.Now()
	out, err := l.next.RecentActivity(ctx, limit)
	l.log(ctx, "store.recent_activity", start, err, slog.Int("count", len(out)))
	return out, err
}

func (l *logged) Close() error {
	return l.next.Close()
}
