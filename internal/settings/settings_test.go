package settings

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s := New()
	d := s.QuizDetails()
	if d.IsSet || d.Time != NotSet || d.Chapter != NotSet || d.Level != NotSet {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if s.Welcome() != DefaultWelcome {
		t.Fatalf("welcome = %q", s.Welcome())
	}
}

func TestSetQuizDetailsMarksSet(t *testing.T) {
	s := New()
	s.SetQuizDetails(QuizDetails{Time: "8:00 PM", Chapter: "Algebra", Level: "Easy"})
	if d := s.QuizDetails(); !d.IsSet || d.Chapter != "Algebra" {
		t.Fatalf("details = %+v", d)
	}
}

func TestWelcomeTemplate(t *testing.T) {
	s := New()
	if s.SetWelcome("   ") {
		t.Fatalf("blank template accepted")
	}
	if !s.SetWelcome("Hi {user_name}, meet {user_name}!") {
		t.Fatalf("template rejected")
	}
	got := RenderWelcome(s.Welcome(), PreviewName)
	if got != "Hi Test User, meet Test User!" {
		t.Fatalf("render = %q", got)
	}
	if HasPlaceholder("Welcome all") || !HasPlaceholder(s.Welcome()) {
		t.Fatalf("placeholder detection wrong")
	}
}

func TestRestoreKeepsDefaultsForEmptyValues(t *testing.T) {
	s := New()
	s.Restore(QuizDetails{}, "")
	if s.Welcome() != DefaultWelcome || s.QuizDetails().Time != NotSet {
		t.Fatalf("defaults overwritten")
	}
	s.Restore(QuizDetails{Time: "9 PM", Chapter: "c", Level: "l", IsSet: true}, "Yo {user_name}")
	if s.Welcome() != "Yo {user_name}" || s.QuizDetails().Time != "9 PM" {
		t.Fatalf("restore ignored values")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct{ first, last, user, want string }{
		{"Asha", "Rao", "asha", "Asha Rao"},
		{"Asha", "", "asha", "Asha"},
		{"", "", "asha", "@asha"},
		{"", "Rao", "", "Unknown User"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.first, tc.last, tc.user); got != tc.want {
			t.Fatalf("DisplayName(%q,%q,%q) = %q, want %q", tc.first, tc.last, tc.user, got, tc.want)
		}
	}
}

func TestStamp(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got := Stamp(time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC), loc)
	if got != "05-03-2026 20:00 IST" {
		t.Fatalf("stamp = %q", got)
	}
}
