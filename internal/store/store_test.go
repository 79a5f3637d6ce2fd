package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/groupbot/internal/config"
	"github.com/m3rciful/groupbot/internal/schedule"
	"github.com/m3rciful/groupbot/internal/settings"
)

func sampleSnapshot(now time.Time) Snapshot {
	return Snapshot{
		QuizDetails: settings.QuizDetails{
			Time: "8:00 PM", Chapter: "Algebra", Level: "Easy",
			IsSet: true, SetBy: 42, SetAt: now,
		},
		WelcomeTemplate: "Hi {user_name}",
		Scheduled: []schedule.Message{
			{ID: uuid.New(), SendAt: now.Add(time.Hour), Text: "later", Markdown: true, CreatedBy: 42, CreatedAt: now},
			{ID: uuid.New(), SendAt: now.Add(2 * time.Hour), Text: "daily", Recurring: true, Attempts: 1, CreatedBy: 42, CreatedAt: now},
		},
		Polls: []schedule.PollClose{
			{ChatID: -100, MessageID: 7, CloseAt: now.Add(5 * time.Minute), Question: "Tea?"},
		},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	empty, err := m.Load(ctx)
	if err != nil || empty.QuizDetails.IsSet || len(empty.Scheduled) != 0 {
		t.Fatalf("fresh store = %+v, %v", empty, err)
	}

	snap := sampleSnapshot(time.Now())
	if err := m.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Scheduled[0].Text = "mutated"

	got, _ := m.Load(ctx)
	if got.Scheduled[0].Text != "later" {
		t.Fatalf("store must keep its own copy, got %q", got.Scheduled[0].Text)
	}
	if got.WelcomeTemplate != "Hi {user_name}" || len(got.Polls) != 1 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	_ = m.LogActivity(ctx, NewActivity("feedback", 7, "Ann", "great quiz", time.Now()))
	if acts := m.Activities(); len(acts) != 1 || acts[0].Kind != "feedback" || acts[0].ID == uuid.Nil {
		t.Fatalf("activities = %+v", acts)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory}}, nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if err := s.Save(ctx, Snapshot{WelcomeTemplate: "x"}); err != nil {
		t.Fatalf("save through wrapper: %v", err)
	}
	if got, _ := s.Load(ctx); got.WelcomeTemplate != "x" {
		t.Fatalf("wrapper lost data: %+v", got)
	}

	if _, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: "mongo"}}, nil); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("unknown driver: err = %v", err)
	}
	if _, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageSQLite}}, nil); err == nil {
		t.Fatalf("sqlite without db should fail")
	}
}

type failingStore struct{ Memory }

var errDown = errors.New("down")

func (f *failingStore) Save(context.Context, Snapshot) error { return errDown }

func TestWithLoggingPassesErrors(t *testing.T) {
	s := WithLogging(&failingStore{}, "test")
	if err := s.Save(context.Background(), Snapshot{}); !errors.Is(err, errDown) {
		t.Fatalf("err = %v, want %v", err, errDown)
	}
}

func TestRedisKey(t *testing.T) {
	if got := redisKey("groupbot", "snapshot"); got != "groupbot:snapshot" {
		t.Fatalf("key = %q", got)
	}
	if got := redisKey("", "activity"); got != "activity" {
		t.Fatalf("key = %q", got)
	}
}

func TestFirebasePath(t *testing.T) {
	f := &Firebase{root: "groupbot"}
	if got := f.path("snapshot"); got != "groupbot/snapshot" {
		t.Fatalf("path = %q", got)
	}
	f.root = ""
	if got := f.path("activity"); got != "activity" {
		t.Fatalf("path = %q", got)
	}
}

func TestMemoryRecentActivityNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, kind := range []string{"announcement", "quiz", "winners"} {
		if err := m.LogActivity(ctx, NewActivity(kind, 42, "", "", at.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	got, err := WithLogging(m, "memory").RecentActivity(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "winners" || got[1].Kind != "quiz" {
		t.Fatalf("recent = %+v", got)
	}
}
