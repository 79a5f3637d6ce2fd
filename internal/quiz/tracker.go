// Package quiz tracks answers to quiz polls sent to the group and ranks
// the members who answered correctly.
package quiz

import (
	"sort"
	"sync"
	"time"
)

// WinnerCount is the number of podium places announced.
const WinnerCount = 3

// Answer is one member's latest answer to a quiz.
type Answer struct {
	UserID     int64
	UserName   string
	Option     int
	Correct    bool
	AnsweredAt time.Time
}

// Session is a quiz poll being tracked.
type Session struct {
	PollID        string
	CorrectOption int
	Question      string
	Options       []string
	StartedAt     time.Time
	OpenPeriod    time.Duration
	Participants  map[int64]Answer
}

// Result summarises a session for the leaderboard.
type Result struct {
	PollID            string
	Question          string
	StartedAt         time.Time
	TotalParticipants int
	// Correct holds every correct answer, fastest first.
	Correct []Answer
	// Winners is the podium, at most WinnerCount entries of Correct.
	Winners []Answer
}

// Elapsed returns how long after the quiz started a was given.
func (r Result) Elapsed(a Answer) time.Duration {
	return a.AnsweredAt.Sub(r.StartedAt)
}

// Tracker holds active quiz sessions keyed by poll id.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	latest   string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// Start begins tracking pollID; correct is the 0-based index of the right option.
func (t *Tracker) Start(pollID string, correct int, question string, options []string, openPeriod time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[pollID] = &Session{
		PollID:        pollID,
		CorrectOption: correct,
		Question:      question,
		Options:       append([]string(nil), options...),
		StartedAt:     now,
		OpenPeriod:    openPeriod,
		Participants:  make(map[int64]Answer),
	}
	t.latest = pollID
}

// Record stores userID's answer, replacing any earlier one. It reports
// false for polls that are not tracked, and otherwise whether the answer is correct.
func (t *Tracker) Record(pollID string, userID int64, userName string, option int, now time.Time) (tracked, correct bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[pollID]
	if !ok {
		return false, false
	}
	correct = option == s.CorrectOption
	s.Participants[userID] = Answer{
		UserID:     userID,
		UserName:   userName,
		Option:     option,
		Correct:    correct,
		AnsweredAt: now,
	}
	return true, correct
}

// Retract forgets userID's answer, as when a vote is withdrawn.
func (t *Tracker) Retract(pollID string, userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[pollID]
	if !ok {
		return false
	}
	if _, answered := s.Participants[userID]; !answered {
		return false
	}
	delete(s.Participants, userID)
	return true
}

// Tally ranks the correct answers of pollID by answer time.
func (t *Tracker) Tally(pollID string) (Result, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[pollID]
	if !ok {
		return Result{}, false
	}

	res := Result{
		PollID:            s.PollID,
		Question:          s.Question,
		StartedAt:         s.StartedAt,
		TotalParticipants: len(s.Participants),
	}
	for _, a := range s.Participants {
		if a.Correct {
			res.Correct = append(res.Correct, a)
		}
	}
	sort.Slice(res.Correct, func(i, j int) bool {
		if res.Correct[i].AnsweredAt.Equal(res.Correct[j].AnsweredAt) {
			return res.Correct[i].UserID < res.Correct[j].UserID
		}
		return res.Correct[i].AnsweredAt.Before(res.Correct[j].AnsweredAt)
	})
	res.Winners = res.Correct
	if len(res.Winners) > WinnerCount {
		res.Winners = res.Winners[:WinnerCount]
	}
	return res, true
}

// Latest returns the id of the most recently started session still tracked.
func (t *Tracker) Latest() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.sessions[t.latest]; ok {
		return t.latest, true
	}
	// the newest was evicted; fall back to the newest remaining
	var (
		id    string
		start time.Time
	)
	for pid, s := range t.sessions {
		if id == "" || s.StartedAt.After(start) {
			id, start = pid, s.StartedAt
		}
	}
	return id, id != ""
}

// Evict stops tracking pollID.
func (t *Tracker) Evict(pollID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[pollID]
	delete(t.sessions, pollID)
	return ok
}

// Expire drops sessions closed for longer than retention and returns how many were removed.
func (t *Tracker) Expire(now time.Time, retention time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, s := range t.sessions {
		if now.After(s.StartedAt.Add(s.OpenPeriod + retention)) {
			delete(t.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
