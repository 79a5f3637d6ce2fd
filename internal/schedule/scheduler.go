// Package schedule runs the loop that delivers deferred group messages and
// closes timed polls once their deadline passes.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/m3rciful/groupbot/core/logger"
)

var (
	// ErrInPast rejects messages whose send time is not in the future.
	ErrInPast = errors.New("send time must be in the future")
	// ErrEmptyText rejects messages without a body.
	ErrEmptyText = errors.New("message text is empty")
)

// Message is a deferred group message.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SendAt    time.Time `json:"send_at" db:"send_at"`
	Text      string    `json:"text" db:"text"`
	Markdown  bool      `json:"markdown" db:"markdown"`
	Recurring bool      `json:"recurring" db:"recurring"`
	Attempts  int       `json:"attempts" db:"attempts"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PollClose is a poll in the group that must be stopped at CloseAt.
type PollClose struct {
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	MessageID int       `json:"message_id" db:"message_id"`
	CloseAt   time.Time `json:"close_at" db:"close_at"`
	Question  string    `json:"question" db:"question"`
	Attempts  int       `json:"attempts" db:"attempts"`
}

func (p PollClose) key() string {
	return fmt.Sprintf("%d:%d", p.ChatID, p.MessageID)
}

// Dispatcher delivers scheduler output to the group.
type Dispatcher interface {
	SendGroup(ctx context.Context, text string, markdown bool) error
	StopPoll(ctx context.Context, chatID int64, messageID int) error
}

// Hook runs after every scan.
type Hook func(ctx context.Context, now time.Time)

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Interval       time.Duration
	MaxAttempts    int
	SendsPerMinute int
	// Location anchors recurring messages to a wall-clock time.
	Location *time.Location
	Now      func() time.Time
	// OnChange is called after a scan modified the pending lists.
	OnChange func(ctx context.Context)
	// OnPanic receives a panic raised during a scan. The loop keeps running.
	OnPanic func(ctx context.Context, v any, stack []byte)
}

// Report describes the outcome of one scan.
type Report struct {
	Due         int
	Dispatched  int
	Failed      int
	Dropped     int
	PollsClosed int
}

func (r Report) changed() bool {
	return r.Due > 0 || r.PollsClosed > 0 || r.Dropped > 0
}

// Scheduler owns the pending message and poll lists. All methods are safe
// for concurrent use; sends happen outside the lock.
type Scheduler struct {
	disp    Dispatcher
	opts    Options
	limiter *rate.Limiter

	mu       sync.Mutex
	messages []Message
	polls    []PollClose
	hooks    []Hook

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New returns a stopped scheduler.
func New(disp Dispatcher, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.SendsPerMinute <= 0 {
		opts.SendsPerMinute = 20
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		disp:    disp,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.SendsPerMinute)), opts.SendsPerMinute),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// AddHook registers fn to run after each scan.
func (s *Scheduler) AddHook(fn Hook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Add queues m. SendAt must be after now; ID and CreatedAt are filled when zero.
func (s *Scheduler) Add(m Message) (Message, error) {
	now := s.opts.Now()
	if strings.TrimSpace(m.Text) == "" {
		return Message{}, ErrEmptyText
	}
	if !m.SendAt.After(now) {
		return Message{}, ErrInPast
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.Attempts = 0

	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return m, nil
}

// AddPoll queues p to be closed at p.CloseAt.
func (s *Scheduler) AddPoll(p PollClose) {
	s.mu.Lock()
	s.polls = append(s.polls, p)
	s.mu.Unlock()
}

// Restore replaces the pending lists with persisted state. Past entries are
// kept so they are handled on the next scan.
func (s *Scheduler) Restore(messages []Message, polls []PollClose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]Message(nil), messages...)
	s.polls = append([]PollClose(nil), polls...)
}

// Messages returns the pending messages ordered by send time.
func (s *Scheduler) Messages() []Message {
	s.mu.Lock()
	out := append([]Message(nil), s.messages...)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SendAt.Before(out[j].SendAt) })
	return out
}

// Polls returns the timed polls still open.
func (s *Scheduler) Polls() []PollClose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PollClose(nil), s.polls...)
}

// Remove deletes the message with id.
func (s *Scheduler) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every pending message and returns how many there were.
func (s *Scheduler) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.messages)
	s.messages = nil
	return n
}

// Start launches the scan loop. It returns immediately; call Stop to end it.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.loop(ctx)
	})
}

// Stop ends the loop and waits for an in-flight scan to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	started := true
	s.startOnce.Do(func() { started = false })
	if started {
		<-s.done
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	logger.SCHED.Info("scheduler started",
		slog.String("event", "scheduler.start"),
		slog.Duration("interval", s.opts.Interval),
		slog.Int("pending_count", len(s.Messages())),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan runs RunOnce, turning a panic into a log line and an OnPanic call.
func (s *Scheduler) scan(ctx context.Context) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		logger.SCHED.Error("scan panicked",
			slog.String("event", "scheduler.scan"),
			slog.String("status", "fail"),
			slog.String("err", fmt.Sprint(r)),
			slog.String("cause", "panic"),
		)
		if s.opts.OnPanic != nil {
			s.opts.OnPanic(ctx, r, stack)
		}
	}()
	s.RunOnce(ctx)
}

// RunOnce performs a single scan: due messages, due polls, then hooks.
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	start := time.Now()
	now := s.opts.Now()

	rep := s.dispatchMessages(ctx, now)
	rep.PollsClosed = s.closePolls(ctx, now)

	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()
	for _, h := range hooks {
		h(ctx, now)
	}

	if rep.changed() {
		logger.SCHED.Info("scan complete",
			slog.String("event", "scheduler.scan"),
			slog.String("status", scanStatus(rep)),
			slog.Int("due", rep.Due),
			slog.Int("dispatched", rep.Dispatched),
			slog.Int("failed", rep.Failed),
			slog.Int("count", rep.PollsClosed),
			slog.Duration("duration", time.Since(start)),
		)
		if s.opts.OnChange != nil {
			s.opts.OnChange(ctx)
		}
	}
	return rep
}

func scanStatus(r Report) string {
	if r.Failed > 0 {
		return "retry"
	}
	return "ok"
}

func (s *Scheduler) dispatchMessages(ctx context.Context, now time.Time) Report {
	s.mu.Lock()
	var due []Message
	for _, m := range s.messages {
		if !m.SendAt.After(now) {
			due = append(due, m)
		}
	}
	s.mu.Unlock()

	rep := Report{Due: len(due)}
	if len(due) == 0 {
		return rep
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].SendAt.Before(due[j].SendAt) })

	results := make(map[uuid.UUID]error, len(due))
	for _, m := range due {
		if ctx.Err() != nil {
			// shutting down; untouched entries stay due for the next run
			break
		}
		err := s.limiter.Wait(ctx)
		if err == nil {
			err = s.disp.SendGroup(ctx, m.Text, m.Markdown)
		}
		results[m.ID] = err
		if err != nil {
			logger.SCHED.Warn("dispatch failed",
				slog.String("event", "scheduler.dispatch"),
				slog.String("status", "fail"),
				slog.String("message_id", m.ID.String()),
				slog.Bool("recurring", m.Recurring),
				slog.Int("attempts", m.Attempts+1),
				slog.String("err", err.Error()),
			)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		err, wasDue := results[m.ID]
		if !wasDue {
			kept = append(kept, m)
			continue
		}
		if err == nil {
			rep.Dispatched++
			if m.Recurring {
				m.Attempts = 0
				m.SendAt = s.nextDay(m.SendAt, now)
				kept = append(kept, m)
			}
			continue
		}

		rep.Failed++
		m.Attempts++
		if m.Attempts < s.opts.MaxAttempts {
			kept = append(kept, m)
			continue
		}
		rep.Dropped++
		logger.SCHED.Error("giving up on message",
			slog.String("event", "scheduler.dispatch"),
			slog.String("status", "dropped"),
			slog.String("message_id", m.ID.String()),
			slog.Bool("recurring", m.Recurring),
			slog.Int("attempts", m.Attempts),
		)
		if m.Recurring {
			m.Attempts = 0
			m.SendAt = s.nextDay(m.SendAt, now)
			kept = append(kept, m)
		}
	}
	// zero the tail so dropped messages can be collected
	for i := len(kept); i < len(s.messages); i++ {
		s.messages[i] = Message{}
	}
	s.messages = kept
	return rep
}

// nextDay advances t by whole days, keeping its wall-clock time, until it is after now.
func (s *Scheduler) nextDay(t, now time.Time) time.Time {
	t = t.In(s.opts.Location)
	for !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (s *Scheduler) closePolls(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []PollClose
	for _, p := range s.polls {
		if !p.CloseAt.After(now) {
			due = append(due, p)
		}
	}
	s.mu.Unlock()
	if len(due) == 0 {
		return 0
	}

	results := make(map[string]error, len(due))
	for _, p := range due {
		if ctx.Err() != nil {
			break
		}
		err := s.disp.StopPoll(ctx, p.ChatID, p.MessageID)
		results[p.key()] = err
		status := "ok"
		if err != nil {
			status = "fail"
		}
		logger.SCHED.Info("poll close",
			slog.String("event", "scheduler.poll_close"),
			slog.String("status", status),
			slog.Int64("chat_id", p.ChatID),
			slog.Int("message_id", p.MessageID),
			slog.String("err", errString(err)),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	closed := 0
	kept := s.polls[:0]
	for _, p := range s.polls {
		err, wasDue := results[p.key()]
		switch {
		case !wasDue:
			kept = append(kept, p)
		case err == nil:
			closed++
		default:
			p.Attempts++
			if p.Attempts < s.opts.MaxAttempts {
				kept = append(kept, p)
			}
		}
	}
	s.polls = kept
	return closed
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
