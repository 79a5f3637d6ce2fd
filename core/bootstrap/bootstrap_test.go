package bootstrap

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/groupbot/core/config"
	coredatabase "github.com/m3rciful/groupbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabaseSkipsSQL(t *testing.T) {
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			t.Fatalf("connect must not be called")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != nil {
		t.Fatalf("expected nil DB")
	}
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("refused")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Driver: coredatabase.DriverPostgres},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestRunMigratesSQLite(t *testing.T) {
	var gotDir string
	dbCfg := &coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: t.TempDir() + "/bot.db"}
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: fstest.MapFS{"migrations/sqlite3/1_init.up.sql": {Data: []byte("SELECT 1;")}},
		LoggerInit: noLogger,
		Migrate: func(cfg coredatabase.Config, fsys fs.FS, dir string) error {
			gotDir = dir
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.DB.Close()
	if gotDir != "migrations" {
		t.Fatalf("dir = %q, want default migrations", gotDir)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
