package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	coredatabase "github.com/m3rciful/groupbot/core/database"
)

func openSQLite(t *testing.T) *SQL {
	t.Helper()
	cfg := coredatabase.Config{
		Driver: coredatabase.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "groupbot.db"),
	}
	if err := coredatabase.RunMigrations(cfg, Migrations, MigrationsDir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := coredatabase.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := NewSQL(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLEmptyLoad(t *testing.T) {
	s := openSQLite(t)
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.QuizDetails.IsSet || snap.WelcomeTemplate != "" || len(snap.Scheduled) != 0 || len(snap.Polls) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSQLRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	want := sampleSnapshot(now)

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	q := got.QuizDetails
	if !q.IsSet || q.Chapter != "Algebra" || q.SetBy != 42 || !q.SetAt.Equal(now) {
		t.Fatalf("quiz details = %+v", q)
	}
	if got.WelcomeTemplate != want.WelcomeTemplate {
		t.Fatalf("welcome = %q", got.WelcomeTemplate)
	}
	if len(got.Scheduled) != 2 {
		t.Fatalf("scheduled = %d, want 2", len(got.Scheduled))
	}
	first := got.Scheduled[0]
	if first.ID != want.Scheduled[0].ID || first.Text != "later" || !first.Markdown || first.Recurring {
		t.Fatalf("first message = %+v", first)
	}
	if !first.SendAt.Equal(want.Scheduled[0].SendAt) {
		t.Fatalf("send at = %v, want %v", first.SendAt, want.Scheduled[0].SendAt)
	}
	if second := got.Scheduled[1]; !second.Recurring || second.Attempts != 1 {
		t.Fatalf("second message = %+v", second)
	}
	if len(got.Polls) != 1 || got.Polls[0].MessageID != 7 || got.Polls[0].ChatID != -100 {
		t.Fatalf("polls = %+v", got.Polls)
	}
}

func TestSQLSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, sampleSnapshot(now)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	next := sampleSnapshot(now)
	next.Scheduled = next.Scheduled[:1]
	next.Polls = nil
	next.WelcomeTemplate = "Hello {user_name}"
	if err := s.Save(ctx, next); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Scheduled) != 1 || len(got.Polls) != 0 || got.WelcomeTemplate != "Hello {user_name}" {
		t.Fatalf("snapshot not replaced: %+v", got)
	}
}

func TestSQLActivity(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, kind := range []string{"announcement", "quiz", "winners"} {
		a := NewActivity(kind, 42, "Admin", "", base.Add(time.Duration(i)*time.Minute))
		if err := s.LogActivity(ctx, a); err != nil {
			t.Fatalf("log %s: %v", kind, err)
		}
	}
	recent, err := s.RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Kind != "winners" || recent[1].Kind != "quiz" {
		t.Fatalf("recent = %+v", recent)
	}
}
