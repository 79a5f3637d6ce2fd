package input

import (
	"errors"
	"testing"
	"time"
)

func TestParseQuiz(t *testing.T) {
	q, err := ParseQuiz(" 30 | What is 2+2? | 3 | 4 | 5 | 6 | 2 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.OpenPeriod != 30*time.Second {
		t.Fatalf("open period = %v", q.OpenPeriod)
	}
	if q.Question != "What is 2+2?" || len(q.Options) != 4 || q.Options[1] != "4" {
		t.Fatalf("unexpected quiz: %+v", q)
	}
	if q.Correct != 1 {
		t.Fatalf("correct = %d, want 1", q.Correct)
	}
}

func TestParseQuizRejects(t *testing.T) {
	cases := map[string]struct {
		line string
		want error
	}{
		"too few fields":   {"30 | Q | a | b | c | 1", ErrFieldCount},
		"too many fields":  {"30 | Q | a | b | c | d | e | 1", ErrFieldCount},
		"empty option":     {"30 | Q | a |  | c | d | 1", ErrEmptyField},
		"short duration":   {"4 | Q | a | b | c | d | 1", ErrDuration},
		"long duration":    {"601 | Q | a | b | c | d | 1", ErrDuration},
		"word duration":    {"soon | Q | a | b | c | d | 1", ErrDuration},
		"correct zero":     {"30 | Q | a | b | c | d | 0", ErrCorrectIndex},
		"correct too high": {"30 | Q | a | b | c | d | 5", ErrCorrectIndex},
	}
	for name, tc := range cases {
		if _, err := ParseQuiz(tc.line); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", name, err, tc.want)
		}
	}
}

func TestParseQuizBounds(t *testing.T) {
	for _, line := range []string{"5 | Q | a | b | c | d | 4", "600 | Q | a | b | c | d | 1"} {
		if _, err := ParseQuiz(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
}

func TestParseReminder(t *testing.T) {
	r, err := ParseReminder("09:30  Revise chapter 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Hour != 9 || r.Minute != 30 || r.Text != "Revise chapter 3" {
		t.Fatalf("unexpected reminder: %+v", r)
	}
	if _, err := ParseReminder("25:00 late"); !errors.Is(err, ErrTime) {
		t.Fatalf("bad hour: err = %v", err)
	}
	if _, err := ParseReminder("09:30"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("no text: err = %v", err)
	}
}

func TestParseTopic(t *testing.T) {
	topic, err := ParseTopic("8:00 PM | Quadratic Equations | Intermediate")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if topic.Time != "8:00 PM" || topic.Chapter != "Quadratic Equations" || topic.Level != "Intermediate" {
		t.Fatalf("unexpected topic: %+v", topic)
	}
	if _, err := ParseTopic("8 PM | Algebra"); !errors.Is(err, ErrFieldCount) {
		t.Fatalf("two fields: err = %v", err)
	}
}

func TestParseDated(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d, err := ParseDated("2026-01-25 14:30 Quiz at  8 PM", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 1, 25, 14, 30, 0, 0, loc)
	if !d.At.Equal(want) {
		t.Fatalf("at = %v, want %v", d.At, want)
	}
	if d.Text != "Quiz at  8 PM" {
		t.Fatalf("text = %q", d.Text)
	}
	if _, err := ParseDated("2026-13-01 10:00 hi", loc); !errors.Is(err, ErrTime) {
		t.Fatalf("bad month: err = %v", err)
	}
	if _, err := ParseDated("2026-01-25 10:00", loc); !errors.Is(err, ErrFieldCount) {
		t.Fatalf("no text: err = %v", err)
	}
}
