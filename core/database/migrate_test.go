package database

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestListMigrationFilesPerDriver(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/postgres/0002_activity.up.sql": {Data: []byte("select 1;")},
		"migrations/postgres/0001_init.up.sql":     {Data: []byte("select 1;")},
		"migrations/postgres/0001_init.down.sql":   {Data: []byte("select 1;")},
		"migrations/sqlite3/0001_init.up.sql":      {Data: []byte("select 1;")},
	}
	got := listMigrationFiles(fsys, "migrations/postgres")
	if len(got) != 2 || got[0] != "0001_init.up.sql" || got[1] != "0002_activity.up.sql" {
		t.Fatalf("unexpected files: %v", got)
	}
	if n := countApplied(got, 1, 2); n != 1 {
		t.Fatalf("countApplied = %d, want 1", n)
	}
	if n := countApplied(got, 2, 2); n != 0 {
		t.Fatalf("countApplied no-op = %d, want 0", n)
	}
}

func TestConfigURLs(t *testing.T) {
	pg := Config{Driver: DriverPostgres, Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "groupbot", SSLMode: "disable"}
	if got := pg.MigrateURL(); got != "postgres://bot:p%40ss@db:5432/groupbot?sslmode=disable" {
		t.Fatalf("postgres migrate url = %s", got)
	}
	if !strings.Contains(pg.DSN(), "dbname=groupbot") {
		t.Fatalf("postgres dsn = %s", pg.DSN())
	}

	lite := Config{Driver: DriverSQLite, Path: "/var/lib/groupbot/bot.db"}
	if got := lite.MigrateURL(); got != "sqlite3:///var/lib/groupbot/bot.db" {
		t.Fatalf("sqlite migrate url = %s", got)
	}
	if !strings.HasPrefix(lite.DSN(), "file:/var/lib/groupbot/bot.db?") {
		t.Fatalf("sqlite dsn = %s", lite.DSN())
	}
}
