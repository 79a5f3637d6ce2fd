package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	sent    []string
	stopped []int
	failFor map[string]error
	stopErr error
}

func (f *fakeDispatcher) SendGroup(_ context.Context, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[text]; err != nil {
		return err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeDispatcher) StopPoll(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stopped = append(f.stopped, messageID)
	return nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

var ist = time.FixedZone("IST", 5*3600+1800)

func newTestScheduler(d Dispatcher, c *clock) *Scheduler {
	return New(d, Options{
		MaxAttempts:    2,
		SendsPerMinute: 600,
		Location:       ist,
		Now:            c.Now,
	})
}

func TestAddRejectsPastAndEmpty(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	s := newTestScheduler(&fakeDispatcher{}, c)

	if _, err := s.Add(Message{Text: "x", SendAt: c.now}); !errors.Is(err, ErrInPast) {
		t.Fatalf("err = %v, want ErrInPast", err)
	}
	if _, err := s.Add(Message{Text: "  ", SendAt: c.now.Add(time.Hour)}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
	m, err := s.Add(Message{Text: "ok", SendAt: c.now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.ID == uuid.Nil || !m.CreatedAt.Equal(c.now) {
		t.Fatalf("id/created_at not filled: %+v", m)
	}
}

func TestPastOneShotIsSentAndRemoved(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &fakeDispatcher{}
	s := newTestScheduler(d, c)
	s.Restore([]Message{{ID: uuid.New(), Text: "late", SendAt: c.now.Add(-time.Hour)}}, nil)

	rep := s.RunOnce(context.Background())
	if rep.Due != 1 || rep.Dispatched != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if len(d.sent) != 1 || d.sent[0] != "late" {
		t.Fatalf("sent = %v", d.sent)
	}
	if n := len(s.Messages()); n != 0 {
		t.Fatalf("pending = %d, want 0", n)
	}
}

func TestRecurringMovesToSameTimeNextDay(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 9, 30, 5, 0, ist)}
	d := &fakeDispatcher{}
	s := newTestScheduler(d, c)
	sendAt := time.Date(2026, 6, 1, 9, 30, 0, 0, ist)
	s.Restore([]Message{{ID: uuid.New(), Text: "daily", SendAt: sendAt, Recurring: true}}, nil)

	s.RunOnce(context.Background())
	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("pending = %d, want 1", len(msgs))
	}
	if want := sendAt.Add(24 * time.Hour); !msgs[0].SendAt.Equal(want) {
		t.Fatalf("next = %v, want %v", msgs[0].SendAt, want)
	}
	if h, m, _ := msgs[0].SendAt.Clock(); h != 9 || m != 30 {
		t.Fatalf("wall clock changed: %v", msgs[0].SendAt)
	}
}

func TestRecurringSkipsMissedDays(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 5, 12, 0, 0, 0, ist)}
	d := &fakeDispatcher{}
	s := newTestScheduler(d, c)
	s.Restore([]Message{{ID: uuid.New(), Text: "daily", SendAt: time.Date(2026, 6, 1, 9, 30, 0, 0, ist), Recurring: true}}, nil)

	s.RunOnce(context.Background())
	if len(d.sent) != 1 {
		t.Fatalf("missed days must be sent once, got %d", len(d.sent))
	}
	if got := s.Messages()[0].SendAt; !got.Equal(time.Date(2026, 6, 6, 9, 30, 0, 0, ist)) {
		t.Fatalf("next = %v", got)
	}
}

func TestFailedDispatchRetriesThenDrops(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &fakeDispatcher{failFor: map[string]error{"once": errors.New("502"), "daily": errors.New("502")}}
	s := newTestScheduler(d, c)
	due := c.now.Add(-time.Minute)
	s.Restore([]Message{
		{ID: uuid.New(), Text: "once", SendAt: due},
		{ID: uuid.New(), Text: "daily", SendAt: due, Recurring: true},
	}, nil)

	rep := s.RunOnce(context.Background())
	if rep.Failed != 2 || rep.Dropped != 0 || len(s.Messages()) != 2 {
		t.Fatalf("first scan: %+v pending=%d", rep, len(s.Messages()))
	}
	for _, m := range s.Messages() {
		if m.Attempts != 1 || !m.SendAt.Equal(due) {
			t.Fatalf("entry should stay due with one attempt: %+v", m)
		}
	}

	rep = s.RunOnce(context.Background())
	if rep.Dropped != 2 {
		t.Fatalf("second scan: %+v", rep)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Text != "daily" {
		t.Fatalf("only the recurring entry should survive: %+v", msgs)
	}
	if msgs[0].Attempts != 0 || !msgs[0].SendAt.After(c.now) {
		t.Fatalf("recurring entry not rolled forward: %+v", msgs[0])
	}
}

func TestFutureMessagesUntouched(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &fakeDispatcher{}
	s := newTestScheduler(d, c)
	if _, err := s.Add(Message{Text: "later", SendAt: c.now.Add(time.Minute)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rep := s.RunOnce(context.Background()); rep.Due != 0 || len(d.sent) != 0 {
		t.Fatalf("future message dispatched: %+v", rep)
	}
}

func TestClosePolls(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &fakeDispatcher{}
	s := newTestScheduler(d, c)
	s.AddPoll(PollClose{ChatID: -1, MessageID: 10, CloseAt: c.now.Add(-time.Second)})
	s.AddPoll(PollClose{ChatID: -1, MessageID: 11, CloseAt: c.now.Add(time.Minute)})

	rep := s.RunOnce(context.Background())
	if rep.PollsClosed != 1 || len(d.stopped) != 1 || d.stopped[0] != 10 {
		t.Fatalf("report = %+v stopped = %v", rep, d.stopped)
	}
	if polls := s.Polls(); len(polls) != 1 || polls[0].MessageID != 11 {
		t.Fatalf("remaining polls = %+v", polls)
	}
}

func TestFailedPollCloseDroppedAfterMaxAttempts(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &fakeDispatcher{stopErr: errors.New("message can't be stopped")}
	s := newTestScheduler(d, c)
	s.AddPoll(PollClose{ChatID: -1, MessageID: 10, CloseAt: c.now})

	s.RunOnce(context.Background())
	if len(s.Polls()) != 1 {
		t.Fatalf("poll dropped after first failure")
	}
	s.RunOnce(context.Background())
	if len(s.Polls()) != 0 {
		t.Fatalf("poll kept after max attempts")
	}
}

func TestHooksAndOnChange(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	var changed int
	s := New(&fakeDispatcher{}, Options{Now: c.Now, OnChange: func(context.Context) { changed++ }})
	var hookAt time.Time
	s.AddHook(func(_ context.Context, now time.Time) { hookAt = now })

	s.RunOnce(context.Background())
	if !hookAt.Equal(c.now) {
		t.Fatalf("hook not run with scan time")
	}
	if changed != 0 {
		t.Fatalf("OnChange called for an idle scan")
	}
	s.Restore([]Message{{ID: uuid.New(), Text: "x", SendAt: c.now}}, nil)
	s.RunOnce(context.Background())
	if changed != 1 {
		t.Fatalf("OnChange calls = %d, want 1", changed)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	s := newTestScheduler(&fakeDispatcher{}, c)
	a, _ := s.Add(Message{Text: "a", SendAt: c.now.Add(2 * time.Hour)})
	s.Add(Message{Text: "b", SendAt: c.now.Add(time.Hour)})

	if got := s.Messages(); got[0].Text != "b" {
		t.Fatalf("messages not ordered by send time: %+v", got)
	}
	if !s.Remove(a.ID) || s.Remove(a.ID) {
		t.Fatalf("remove should succeed once")
	}
	if n := s.Clear(); n != 1 {
		t.Fatalf("cleared = %d, want 1", n)
	}
}

func TestStartStop(t *testing.T) {
	s := New(&fakeDispatcher{}, Options{Interval: time.Millisecond})
	ticks := make(chan struct{}, 1)
	s.AddHook(func(context.Context, time.Time) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	s.Start(context.Background())
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop never ticked")
	}
	s.Stop()
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	s := New(&fakeDispatcher{}, Options{})
	s.Stop()
}

func TestLoopSurvivesPanickingScan(t *testing.T) {
	panics := make(chan any, 1)
	s := New(&fakeDispatcher{}, Options{
		Interval: time.Millisecond,
		OnPanic: func(_ context.Context, v any, stack []byte) {
			if len(stack) == 0 {
				t.Errorf("empty stack")
			}
			select {
			case panics <- v:
			default:
			}
		},
	})
	var (
		mu    sync.Mutex
		scans int
	)
	ticks := make(chan struct{}, 1)
	s.AddHook(func(context.Context, time.Time) {
		mu.Lock()
		scans++
		n := scans
		mu.Unlock()
		if n == 1 {
			panic("hook boom")
		}
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	s.Start(context.Background())
	defer s.Stop()

	select {
	case v := <-panics:
		if v != "hook boom" {
			t.Fatalf("panic value = %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("panic not reported")
	}
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop stopped after a panic")
	}
}

type blockingDispatcher struct {
	fakeDispatcher
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDispatcher) SendGroup(ctx context.Context, text string, markdown bool) error {
	b.entered <- struct{}{}
	<-b.release
	return b.fakeDispatcher.SendGroup(ctx, text, markdown)
}

func TestAddDuringScanIsKept(t *testing.T) {
	c := &clock{now: time.Date(2026, 6, 1, 10, 0, 0, 0, ist)}
	d := &blockingDispatcher{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestScheduler(d, c)
	s.Restore([]Message{{ID: uuid.New(), Text: "due", SendAt: c.now.Add(-time.Minute)}}, nil)

	reports := make(chan Report, 1)
	go func() { reports <- s.RunOnce(context.Background()) }()

	<-d.entered
	added, err := s.Add(Message{Text: "later", SendAt: c.now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("add during scan: %v", err)
	}
	close(d.release)

	rep := <-reports
	if rep.Dispatched != 1 {
		t.Fatalf("dispatched = %d, want 1", rep.Dispatched)
	}
	got := s.Messages()
	if len(got) != 1 || got[0].ID != added.ID {
		t.Fatalf("pending = %+v, want only the added message", got)
	}
}
