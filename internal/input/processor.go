package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/groupbot/core/logger"
	"github.com/m3rciful/groupbot/core/telegram/format"
	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"
	"github.com/m3rciful/groupbot/core/telegram/state"
	"github.com/m3rciful/groupbot/internal/quiz"
	"github.com/m3rciful/groupbot/internal/schedule"
	"github.com/m3rciful/groupbot/internal/settings"
)

// Keyboard names the inline buttons a reply should carry.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardQuizAnnounce offers to announce fresh quiz details to the group.
	KeyboardQuizAnnounce
	// KeyboardWelcomeConfirm asks to confirm a template without the name placeholder.
	KeyboardWelcomeConfirm
)

// Result is the reply to send back to the admin.
type Result struct {
	Reply    string
	Markdown bool
	Keyboard Keyboard
	// Retry is set when the step was kept so the admin can resend.
	Retry bool
}

// Input is one private message received while a step is pending.
type Input struct {
	Text      string
	ChatID    int64
	MessageID int
	// Media is set for photos, videos, documents and other attachments.
	Media     bool
	MediaKind string
}

// Outbox performs the group-facing effects of a completed step.
type Outbox interface {
	Announce(ctx context.Context, text string) error
	AnnounceMedia(ctx context.Context, fromChatID int64, messageID int, footer string) error
	SendQuiz(ctx context.Context, q Quiz) (pollID string, err error)
}

// Queue accepts deferred group messages.
type Queue interface {
	Add(m schedule.Message) (schedule.Message, error)
}

// Activity describes a successful mutation, used for persistence and the audit log.
type Activity struct {
	UserID int64
	Kind   string
	Detail string
}

// Deps wires a Processor.
type Deps struct {
	Steps    *state.Store[Step]
	Settings *settings.Settings
	Tracker  *quiz.Tracker
	Queue    Queue
	Outbox   Outbox
	Location *time.Location
	Now      func() time.Time
	// OnChange is called after every applied step.
	OnChange func(ctx context.Context, a Activity)
}

// Processor applies pending steps.
type Processor struct {
	d Deps

	mu      sync.Mutex
	working map[int64]*sync.Mutex
}

// NewProcessor returns a processor over deps. Steps, Settings and Tracker are
// created when nil.
func NewProcessor(d Deps) *Processor {
	if d.Steps == nil {
		d.Steps = state.NewStore[Step]()
	}
	if d.Settings == nil {
		d.Settings = settings.New()
	}
	if d.Tracker == nil {
		d.Tracker = quiz.NewTracker()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Processor{d: d, working: make(map[int64]*sync.Mutex)}
}

// lockUser serialises step handling for userID and returns the unlock func.
func (p *Processor) lockUser(userID int64) func() {
	p.mu.Lock()
	m, ok := p.working[userID]
	if !ok {
		m = &sync.Mutex{}
		p.working[userID] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// InProgress reports whether userID has a pending step.
func (p *Processor) InProgress(userID int64) bool {
	return p.d.Steps.InProgress(userID)
}

// Pending returns the number of users with a pending step.
func (p *Processor) Pending() int {
	return p.d.Steps.Len()
}

// Step returns the pending step of userID.
func (p *Processor) Step(userID int64) (Step, bool) {
	return p.d.Steps.Get(userID)
}

// Begin records step for userID, replacing any earlier one, and returns its instructions.
func (p *Processor) Begin(userID int64, step Step) Result {
	p.d.Steps.Set(userID, step)
	logger.ADMIN.Debug("step started",
		slog.String("event", "input.begin"),
		slog.Int64("user_id", userID),
		slog.String("step", step.Name()),
	)
	return Result{Reply: p.prompt(step), Markdown: true}
}

// Cancel clears any pending step of userID.
func (p *Processor) Cancel(userID int64) Result {
	step, had := p.d.Steps.Get(userID)
	p.d.Steps.Clear(userID)
	if !had {
		return Result{Reply: "ℹ️ Nothing to cancel."}
	}
	logger.ADMIN.Info("step cancelled",
		slog.String("event", "input.cancel"),
		slog.String("status", "cancelled"),
		slog.Int64("user_id", userID),
		slog.String("step", step.Name()),
	)
	return Result{Reply: "❌ Cancelled."}
}

// Handle interprets in against userID's pending step. ok is false when no step is pending.
// Messages of one user are handled one at a time.
func (p *Processor) Handle(ctx context.Context, userID int64, in Input) (res Result, ok bool) {
	// a second message must not apply the step the first one is still applying
	unlock := p.lockUser(userID)
	defer unlock()

	step, ok := p.d.Steps.Get(userID)
	if !ok {
		return Result{}, false
	}
	text := strings.TrimSpace(in.Text)
	if strings.EqualFold(text, "/cancel") {
		return p.Cancel(userID), true
	}
	if strings.HasPrefix(text, "/") && !in.Media {
		return Result{
			Reply: "ℹ️ Unknown command while a step is pending. Send the requested input, or /cancel.",
			Retry: true,
		}, true
	}

	start := time.Now()
	var err error
	switch step.(type) {
	case AwaitAnnouncement:
		res, err = p.announce(ctx, userID, in)
	case AwaitQuickQuiz:
		res, err = p.quickQuiz(ctx, userID, text)
	case AwaitDailyReminder:
		res, err = p.reminder(ctx, userID, text)
	case AwaitQuizDetails:
		res, err = p.quizDetails(ctx, userID, text)
	case AwaitWelcome:
		res, err = p.welcome(ctx, userID, text)
	case AwaitWelcomeConfirm:
		return Result{Reply: "👆 Use the buttons above to confirm the welcome message, or /cancel.", Retry: true}, true
	case AwaitScheduledMessage:
		res, err = p.scheduled(ctx, userID, text)
	default:
		p.d.Steps.Clear(userID)
		return Result{Reply: "❌ Unknown step, cleared."}, true
	}

	status := "ok"
	if err != nil {
		status = "retry"
		res = Result{Reply: "❌ " + userMessage(err), Retry: true}
	}
	logger.ADMIN.Info("step handled",
		slog.String("event", "input.apply"),
		slog.String("status", status),
		slog.Int64("user_id", userID),
		slog.String("step", step.Name()),
		slog.Duration("duration", time.Since(start)),
		slog.String("err", errText(err)),
	)
	return res, true
}

// ConfirmWelcome applies a template held by AwaitWelcomeConfirm.
func (p *Processor) ConfirmWelcome(ctx context.Context, userID int64) (Result, bool) {
	var tmpl string
	ok := p.d.Steps.CompareAndClear(userID, func(s Step) bool {
		c, is := s.(AwaitWelcomeConfirm)
		tmpl = c.Template
		return is
	})
	if !ok {
		return Result{}, false
	}
	p.d.Settings.SetWelcome(tmpl)
	p.changed(ctx, userID, "welcome", tmpl)
	return Result{Reply: "✅ Welcome message updated (without a name placeholder)."}, true
}

// RejectWelcome drops a template held by AwaitWelcomeConfirm.
func (p *Processor) RejectWelcome(userID int64) bool {
	return p.d.Steps.CompareAndClear(userID, func(s Step) bool {
		_, is := s.(AwaitWelcomeConfirm)
		return is
	})
}

func (p *Processor) done(userID int64) {
	p.d.Steps.Clear(userID)
}

func (p *Processor) changed(ctx context.Context, userID int64, kind, detail string) {
	if p.d.OnChange != nil {
		p.d.OnChange(ctx, Activity{UserID: userID, Kind: kind, Detail: detail})
	}
}

func (p *Processor) announce(ctx context.Context, userID int64, in Input) (Result, error) {
	stamp := settings.Stamp(p.d.Now(), p.d.Location)
	if in.Media {
		if err := p.d.Outbox.AnnounceMedia(ctx, in.ChatID, in.MessageID, "📢 *ANNOUNCEMENT* • "+stamp); err != nil {
			return Result{}, &effectError{what: "send the announcement", err: err}
		}
		p.done(userID)
		p.changed(ctx, userID, "announcement", "media: "+in.MediaKind)
		return Result{Reply: "✅ Announcement sent to the group!"}, nil
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}
	body := "📢 *OFFICIAL ANNOUNCEMENT*\n🕐 " + stamp + "\n\n" + text
	if err := p.d.Outbox.Announce(ctx, body); err != nil {
		return Result{}, &effectError{what: "send the announcement", err: err}
	}
	p.done(userID)
	p.changed(ctx, userID, "announcement", format.Truncate(text, 100))
	return Result{Reply: "✅ Announcement sent to the group!"}, nil
}

func (p *Processor) quickQuiz(ctx context.Context, userID int64, text string) (Result, error) {
	q, err := ParseQuiz(text)
	if err != nil {
		return Result{}, err
	}
	pollID, err := p.d.Outbox.SendQuiz(ctx, q)
	if err != nil {
		return Result{}, &effectError{what: "send the quiz", err: err}
	}
	p.d.Tracker.Start(pollID, q.Correct, q.Question, q.Options, q.OpenPeriod, p.d.Now())
	p.done(userID)
	p.changed(ctx, userID, "quiz", pollID)

	reply := fmt.Sprintf("✅ *Quiz sent!*\n\n*Question:* %s\n*Correct answer:* %s\n*Open for:* %ds\n\nUse /winners to announce the results.",
		format.MD(q.Question), format.MD(q.Options[q.Correct]), int(q.OpenPeriod/time.Second))
	return Result{Reply: reply, Markdown: true}, nil
}

func (p *Processor) reminder(ctx context.Context, userID int64, text string) (Result, error) {
	r, err := ParseReminder(text)
	if err != nil {
		return Result{}, err
	}
	now := p.d.Now().In(p.d.Location)
	next := tghelpers.NextClock(now, r.Hour, r.Minute)
	m, err := p.d.Queue.Add(schedule.Message{
		SendAt:    next,
		Text:      "⏰ " + r.Text,
		Recurring: true,
		CreatedBy: userID,
	})
	if err != nil {
		return Result{}, err
	}
	p.done(userID)
	p.changed(ctx, userID, "reminder", m.ID.String())
	return Result{Reply: fmt.Sprintf("✅ Daily reminder set for %02d:%02d. First one: %s.",
		r.Hour, r.Minute, settings.Stamp(next, p.d.Location))}, nil
}

func (p *Processor) quizDetails(ctx context.Context, userID int64, text string) (Result, error) {
	t, err := ParseTopic(text)
	if err != nil {
		return Result{}, err
	}
	p.d.Settings.SetQuizDetails(settings.QuizDetails{
		Time:    t.Time,
		Chapter: t.Chapter,
		Level:   t.Level,
		SetBy:   userID,
		SetAt:   p.d.Now(),
	})
	p.done(userID)
	p.changed(ctx, userID, "quiz_details", t.Chapter)

	reply := fmt.Sprintf("✅ *Today's quiz details set!*\n\n⏰ *Time:* %s\n📚 *Chapter:* %s\n📊 *Level:* %s\n\nAnnounce them to the group?",
		format.MD(t.Time), format.MD(t.Chapter), format.MD(t.Level))
	return Result{Reply: reply, Markdown: true, Keyboard: KeyboardQuizAnnounce}, nil
}

func (p *Processor) welcome(ctx context.Context, userID int64, text string) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyMessage
	}
	if !settings.HasPlaceholder(text) {
		p.d.Steps.Set(userID, AwaitWelcomeConfirm{Template: text})
		return Result{
			Reply:    "⚠️ The message has no {user_name} placeholder, so new members won't see their name. Use it anyway?",
			Keyboard: KeyboardWelcomeConfirm,
		}, nil
	}
	p.d.Settings.SetWelcome(text)
	p.done(userID)
	p.changed(ctx, userID, "welcome", text)
	preview := settings.RenderWelcome(text, settings.PreviewName)
	return Result{Reply: "✅ Welcome message updated!\n\nPreview:\n" + preview}, nil
}

func (p *Processor) scheduled(ctx context.Context, userID int64, text string) (Result, error) {
	d, err := ParseDated(text, p.d.Location)
	if err != nil {
		return Result{}, err
	}
	m, err := p.d.Queue.Add(schedule.Message{
		SendAt:    d.At,
		Text:      d.Text,
		Markdown:  true,
		CreatedBy: userID,
	})
	if err != nil {
		return Result{}, err
	}
	p.done(userID)
	p.changed(ctx, userID, "schedule", m.ID.String())
	return Result{Reply: fmt.Sprintf("✅ Message scheduled for %s.\n\nPreview: %s",
		settings.Stamp(m.SendAt, p.d.Location), format.Truncate(d.Text, 100))}, nil
}

func (p *Processor) prompt(step Step) string {
	switch step.(type) {
	case AwaitAnnouncement:
		return "📣 *Create an announcement*\n\nSend the text, or a photo/video/document, to post in the group.\n\nSend /cancel to abort."
	case AwaitQuickQuiz:
		return "🧠 *Quick quiz*\n\nFormat:\n`Seconds | Question | Opt1 | Opt2 | Opt3 | Opt4 | Correct(1-4)`\n\nExample:\n`30 | What is 2+2? | 3 | 4 | 5 | 6 | 2`\n\nSeconds must be between 5 and 600. Send /cancel to abort."
	case AwaitDailyReminder:
		return "⏰ *Daily reminder*\n\nFormat: `HH:MM message` (24-hour)\n\nExample: `09:30 Revise yesterday's chapter`\n\nSend /cancel to abort."
	case AwaitQuizDetails:
		return "🗓️ *Today's quiz details*\n\nFormat: `Time | Chapter | Level`\n\nExample: `8:00 PM | Quadratic Equations | Intermediate`\n\nSend /cancel to abort."
	case AwaitWelcome:
		return "👋 *Welcome message*\n\nSend the new message. Use `{user_name}` where the member's name should appear.\n\n*Current:*\n" +
			format.MD(p.d.Settings.Welcome()) + "\n\nSend /cancel to abort."
	case AwaitScheduledMessage:
		return "📅 *Schedule a message*\n\nFormat: `YYYY-MM-DD HH:MM message` (24-hour, group time zone)\n\nExample: `2026-01-25 14:30 Quiz at 8 PM today!`\n\nSend /cancel to abort."
	}
	return "Send /cancel to abort."
}

// effectError reports a failed group-facing effect; the step is kept for retry.
type effectError struct {
	what string
	err  error
}

func (e *effectError) Error() string { return "failed to " + e.what + ": " + e.err.Error() }
func (e *effectError) Unwrap() error { return e.err }

func userMessage(err error) string {
	var eff *effectError
	switch {
	case errors.As(err, &eff):
		return "Could not " + eff.what + ". Please try again or /cancel."
	case errors.Is(err, schedule.ErrInPast):
		return "That time has already passed. Pick a time in the future."
	}
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
