// Package app wires the group bot: it owns every piece of shared state and
// exposes the Telegram handlers as methods.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/groupbot/core/logger"
	coretelegram "github.com/m3rciful/groupbot/core/telegram"
	"github.com/m3rciful/groupbot/core/telegram/middleware"
	tgsender "github.com/m3rciful/groupbot/core/telegram/sender"
	"github.com/m3rciful/groupbot/core/telegram/state"
	"github.com/m3rciful/groupbot/internal/config"
	"github.com/m3rciful/groupbot/internal/input"
	"github.com/m3rciful/groupbot/internal/quiz"
	"github.com/m3rciful/groupbot/internal/schedule"
	"github.com/m3rciful/groupbot/internal/settings"
	"github.com/m3rciful/groupbot/internal/store"
)

// directory resolves group membership and metadata.
type directory interface {
	middleware.MembershipChecker
	Info(ctx context.Context) (GroupInfo, error)
}

// App is the bot's application state.
type App struct {
	cfg      *config.Config
	loc      *time.Location
	now      func() time.Time
	registry *coretelegram.Registry

	settings *settings.Settings
	steps    *state.Store[input.Step]
	tracker  *quiz.Tracker
	store    store.Store

	// set by attach once the transport exists
	group *Group
	dir   directory
	sched *schedule.Scheduler
	proc  *input.Processor
	disp  *tgsender.Dispatcher

	saveMu sync.Mutex
}

// New builds the application state and registers commands and callbacks.
// st may be nil, in which case nothing is persisted.
func New(cfg *config.Config, st store.Store) *App {
	if st == nil {
		st = store.NewMemory()
	}
	a := &App{
		cfg:      cfg,
		loc:      cfg.Location(),
		now:      time.Now,
		registry: coretelegram.NewRegistry(),
		settings: settings.New(),
		steps:    state.NewStore[input.Step](),
		tracker:  quiz.NewTracker(),
		store:    st,
	}
	a.registerCommands()
	a.registerCallbacks()
	return a
}

// attach builds the group-facing components on top of the transport.
func (a *App) attach(api groupAPI, dir directory, disp *tgsender.Dispatcher) {
	a.disp = disp
	a.dir = dir
	a.group = NewGroup(api, a.cfg.Group.ID, disp)
	a.sched = schedule.New(a.group, schedule.Options{
		Interval:       a.cfg.SchedulerInterval(),
		MaxAttempts:    a.cfg.Scheduler.MaxAttempts,
		SendsPerMinute: a.cfg.Scheduler.SendsPerMinute,
		Location:       a.loc,
		Now:            a.now,
		OnChange:       a.persist,
		OnPanic:        a.reportPanic,
	})
	a.sched.AddHook(a.expireQuizzes)
	a.proc = input.NewProcessor(input.Deps{
		Steps:    a.steps,
		Settings: a.settings,
		Tracker:  a.tracker,
		Queue:    a.sched,
		Outbox:   a.group,
		Location: a.loc,
		Now:      a.now,
		OnChange: a.onInputApplied,
	})
}

func (a *App) expireQuizzes(ctx context.Context, now time.Time) {
	if n := a.tracker.Expire(now, a.cfg.QuizRetention()); n > 0 {
		logger.LogEvent(ctx, logger.QUIZ, slog.LevelInfo, "quiz.expire",
			slog.Int("count", n),
			slog.Int("pending_count", a.tracker.Len()),
		)
	}
}

// reportPanic tells the admin that a scheduler scan crashed.
func (a *App) reportPanic(ctx context.Context, v any, stack []byte) {
	const maxStack = 3000
	if len(stack) > maxStack {
		stack = stack[:maxStack]
	}
	text := fmt.Sprintf("🚨 Scheduler error\n\nTime: %s\nCause: %v\n\n%s", settings.Stamp(a.now(), a.loc), v, stack)
	if err := a.group.SendTo(ctx, a.cfg.Telegram.AdminID, text, false); err != nil {
		logger.LogEvent(ctx, logger.SCHED, slog.LevelWarn, "scheduler.panic_report",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func (a *App) onInputApplied(ctx context.Context, act input.Activity) {
	a.logActivity(ctx, act.Kind, act.UserID, "", act.Detail)
	a.persist(ctx)
}

func (a *App) snapshot() store.Snapshot {
	return store.Snapshot{
		QuizDetails:     a.settings.QuizDetails(),
		WelcomeTemplate: a.settings.Welcome(),
		Scheduled:       a.sched.Messages(),
		Polls:           a.sched.Polls(),
	}
}

// persist saves the current state. Failures are logged and otherwise ignored.
func (a *App) persist(ctx context.Context) {
	if a.sched == nil {
		return
	}
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if err := a.store.Save(ctx, a.snapshot()); err != nil {
		logger.LogEvent(ctx, logger.STORE, slog.LevelWarn, "store.persist",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// restore loads persisted state. An unavailable store leaves the defaults in place.
func (a *App) restore(ctx context.Context) {
	snap, err := a.store.Load(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.STORE, slog.LevelWarn, "store.restore",
			slog.String("status", "skip"),
			slog.String("cause", "load_failed"),
			slog.String("err", err.Error()),
		)
		return
	}
	a.settings.Restore(snap.QuizDetails, snap.WelcomeTemplate)
	a.sched.Restore(snap.Scheduled, snap.Polls)
	logger.LogEvent(ctx, logger.STORE, slog.LevelInfo, "store.restore",
		slog.String("status", "ok"),
		slog.Int("messages", len(snap.Scheduled)),
		slog.Int("count", len(snap.Polls)),
		slog.Bool("quiz_set", snap.QuizDetails.IsSet),
	)
}

func (a *App) logActivity(ctx context.Context, kind string, userID int64, userName, detail string) {
	act := store.NewActivity(kind, userID, userName, detail, a.now())
	if err := a.store.LogActivity(ctx, act); err != nil {
		logger.LogEvent(ctx, logger.STORE, slog.LevelWarn, "store.activity",
			slog.String("status", "fail"),
			slog.String("payload", kind),
			slog.String("err", err.Error()),
		)
	}
}

func (a *App) isAdmin(userID int64) bool {
	return userID == a.cfg.Telegram.AdminID
}

// Start restores persisted state and starts the scheduler loop.
func (a *App) Start(ctx context.Context) {
	a.restore(ctx)
	a.sched.Start(ctx)
	logger.LogEvent(ctx, logger.L, slog.LevelInfo, "app.start",
		slog.String("status", "ok"),
		slog.Int("messages", len(a.sched.Messages())),
		slog.Int("count", len(a.sched.Polls())),
	)
}

// Stop halts the scheduler, saves state and closes the store.
func (a *App) Stop(ctx context.Context) error {
	a.sched.Stop()
	a.persist(ctx)
	return a.store.Close()
}
