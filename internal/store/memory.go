package store

import (
	"context"
	"sync"

	"github.com/m3rciful/groupbot/internal/schedule"
)

// Memory keeps state for the lifetime of the process only.
type Memory struct {
	mu         sync.Mutex
	snap       Snapshot
	activities []Activity
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap), nil
}

func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	m.snap = cloneSnapshot(snap)
	m.mu.Unlock()
	return nil
}

func (m *Memory) LogActivity(_ context.Context, a Activity) error {
	m.mu.Lock()
	m.activities = append(m.activities, a)
	m.mu.Unlock()
	return nil
}

// Activities returns the logged entries, oldest first.
func (m *Memory) Activities() []Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Activity(nil), m.activities...)
}

func (m *Memory) RecentActivity(_ context.Context, limit int) ([]Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Activity
	for i := len(m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.activities[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

func cloneSnapshot(s Snapshot) Snapshot {
	s.Scheduled = append([]schedule.Message(nil), s.Scheduled...)
	s.Polls = append([]schedule.PollClose(nil), s.Polls...)
	return s
}
