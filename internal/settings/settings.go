// Package settings holds the mutable group configuration singletons: today's
// quiz details and the welcome template for new members.
package settings

import (
	"strings"
	"sync"
	"time"
)

// NotSet is shown for quiz detail fields that were never configured.
const NotSet = "Not Set"

// Placeholder is replaced with the new member's display name.
const Placeholder = "{user_name}"

// PreviewName is substituted for Placeholder when previewing a template.
const PreviewName = "Test User"

// DefaultWelcome is used until an admin sets a template.
const DefaultWelcome = "Hey {user_name}! 👋 Welcome to the group. Be ready for the quiz at 8 PM! 🚀"

// QuizDetails describes today's quiz as announced to members.
type QuizDetails struct {
	Time    string    `json:"time" db:"time"`
	Chapter string    `json:"chapter" db:"chapter"`
	Level   string    `json:"level" db:"level"`
	IsSet   bool      `json:"is_set" db:"is_set"`
	SetBy   int64     `json:"set_by,omitempty" db:"set_by"`
	SetAt   time.Time `json:"set_at,omitempty" db:"set_at"`
}

// DefaultQuizDetails returns the unset details.
func DefaultQuizDetails() QuizDetails {
	return QuizDetails{Time: NotSet, Chapter: NotSet, Level: NotSet}
}

// Settings guards the singletons shared between handlers.
type Settings struct {
	mu      sync.RWMutex
	quiz    QuizDetails
	welcome string
}

// New returns settings initialised with defaults.
func New() *Settings {
	return &Settings{quiz: DefaultQuizDetails(), welcome: DefaultWelcome}
}

// QuizDetails returns a copy of today's quiz details.
func (s *Settings) QuizDetails() QuizDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiz
}

// SetQuizDetails replaces today's quiz details and marks them set.
func (s *Settings) SetQuizDetails(d QuizDetails) {
	d.IsSet = true
	s.mu.Lock()
	s.quiz = d
	s.mu.Unlock()
}

// Welcome returns the current welcome template.
func (s *Settings) Welcome() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.welcome
}

// SetWelcome replaces the welcome template. Blank templates are ignored.
func (s *Settings) SetWelcome(tmpl string) bool {
	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" {
		return false
	}
	s.mu.Lock()
	s.welcome = tmpl
	s.mu.Unlock()
	return true
}

// Restore loads persisted values, keeping defaults for anything missing.
func (s *Settings) Restore(quiz QuizDetails, welcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.IsSet {
		s.quiz = quiz
	}
	if w := strings.TrimSpace(welcome); w != "" {
		s.welcome = w
	}
}

// RenderWelcome substitutes every placeholder in tmpl with name.
func RenderWelcome(tmpl, name string) string {
	return strings.ReplaceAll(tmpl, Placeholder, name)
}

// HasPlaceholder reports whether tmpl will mention the new member.
func HasPlaceholder(tmpl string) bool {
	return strings.Contains(tmpl, Placeholder)
}

// DisplayName renders a user as "first last", "first", "@username" or "Unknown User".
func DisplayName(first, last, username string) string {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case username != "":
		return "@" + username
	}
	return "Unknown User"
}

// StampLayout renders timestamps shown to the group, e.g. "05-03-2026 20:00 IST".
const StampLayout = "02-01-2006 15:04 MST"

// Stamp formats t in loc with StampLayout.
func Stamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(StampLayout)
}
