package bootstrap

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/groupbot/core/config"
	coredatabase "github.com/m3rciful/groupbot/core/database"
	"github.com/m3rciful/groupbot/core/logger"
)

// Options control the bootstrap pipeline. Database is nil when the bot
// persists somewhere other than SQL.
type Options struct {
	Config   *coreconfig.Config
	Database *coredatabase.Config

	// Migrations holds one subdirectory per SQL driver under MigrationsDir.
	Migrations    fs.FS
	MigrationsDir string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(cfg coredatabase.Config, fsys fs.FS, dir string) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil unless Options.Database was set.
	DB *sqlx.DB
}

// Run initializes the logger and, for SQL storage, connects and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database == nil {
		logger.DB.Info("sql storage disabled", slog.String("event", "db.skip"))
		return &Result{}, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(*opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		dir := opts.MigrationsDir
		if dir == "" {
			dir = "migrations"
		}
		if err := migrate(*opts.Database, opts.Migrations, dir); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	return &Result{DB: db}, nil
}
