package quiz

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)

func startedTracker() *Tracker {
	tr := NewTracker()
	tr.Start("p1", 1, "2+2?", []string{"3", "4", "5", "6"}, time.Minute, t0)
	return tr
}

func TestRecordIgnoresUnknownPoll(t *testing.T) {
	tr := startedTracker()
	if tracked, _ := tr.Record("nope", 1, "A", 1, t0); tracked {
		t.Fatalf("unknown poll must not be tracked")
	}
}

func TestRecordOverwritesEarlierAnswer(t *testing.T) {
	tr := startedTracker()
	if _, correct := tr.Record("p1", 1, "A", 0, t0.Add(time.Second)); correct {
		t.Fatalf("option 0 reported correct")
	}
	if _, correct := tr.Record("p1", 1, "A", 1, t0.Add(2*time.Second)); !correct {
		t.Fatalf("option 1 reported wrong")
	}
	res, _ := tr.Tally("p1")
	if res.TotalParticipants != 1 || len(res.Correct) != 1 {
		t.Fatalf("tally = %+v", res)
	}
}

func TestTallyOrdersByAnswerTime(t *testing.T) {
	tr := startedTracker()
	tr.Record("p1", 1, "Slow", 1, t0.Add(9*time.Second))
	tr.Record("p1", 2, "Wrong", 2, t0.Add(time.Second))
	tr.Record("p1", 3, "Fast", 1, t0.Add(2*time.Second))
	tr.Record("p1", 4, "Mid", 1, t0.Add(4*time.Second))
	tr.Record("p1", 5, "Late", 1, t0.Add(30*time.Second))

	res, ok := tr.Tally("p1")
	if !ok {
		t.Fatalf("tally missing")
	}
	if res.TotalParticipants != 5 || len(res.Correct) != 4 || len(res.Winners) != WinnerCount {
		t.Fatalf("counts = %d/%d/%d", res.TotalParticipants, len(res.Correct), len(res.Winners))
	}
	want := []string{"Fast", "Mid", "Slow"}
	for i, name := range want {
		if res.Winners[i].UserName != name {
			t.Fatalf("winner %d = %s, want %s", i, res.Winners[i].UserName, name)
		}
	}
	if got := res.Elapsed(res.Winners[0]); got != 2*time.Second {
		t.Fatalf("elapsed = %v", got)
	}
}

func TestRetract(t *testing.T) {
	tr := startedTracker()
	tr.Record("p1", 1, "A", 1, t0)
	if !tr.Retract("p1", 1) || tr.Retract("p1", 1) {
		t.Fatalf("retract should succeed exactly once")
	}
	if res, _ := tr.Tally("p1"); res.TotalParticipants != 0 {
		t.Fatalf("participant not removed")
	}
}

func TestLatestFallsBackAfterEvict(t *testing.T) {
	tr := startedTracker()
	tr.Start("p2", 0, "q", []string{"a", "b"}, time.Minute, t0.Add(time.Hour))
	if id, _ := tr.Latest(); id != "p2" {
		t.Fatalf("latest = %s", id)
	}
	tr.Evict("p2")
	if id, ok := tr.Latest(); !ok || id != "p1" {
		t.Fatalf("latest after evict = %s,%v", id, ok)
	}
	tr.Evict("p1")
	if _, ok := tr.Latest(); ok {
		t.Fatalf("empty tracker reports latest")
	}
}

func TestExpire(t *testing.T) {
	tr := startedTracker()
	if n := tr.Expire(t0.Add(time.Minute+time.Hour), time.Hour); n != 0 {
		t.Fatalf("expired too early: %d", n)
	}
	if n := tr.Expire(t0.Add(time.Minute+time.Hour+time.Second), time.Hour); n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if tr.Len() != 0 {
		t.Fatalf("len = %d", tr.Len())
	}
}
