// Package input implements the admin multi-step flows: a command records a
// pending step for the admin, and the next private message is parsed against
// that step's grammar.
package input

// Step is a pending step. The set of steps is closed.
type Step interface {
	Name() string
	isStep()
}

// AwaitAnnouncement expects text or media to announce to the group.
type AwaitAnnouncement struct{}

// AwaitQuickQuiz expects "Seconds | Question | Opt1 | Opt2 | Opt3 | Opt4 | Correct".
type AwaitQuickQuiz struct{}

// AwaitDailyReminder expects "HH:MM message".
type AwaitDailyReminder struct{}

// AwaitQuizDetails expects "Time | Chapter | Level".
type AwaitQuizDetails struct{}

// AwaitWelcome expects a new welcome template.
type AwaitWelcome struct{}

// AwaitWelcomeConfirm holds a template without the name placeholder until
// the admin confirms it with a button.
type AwaitWelcomeConfirm struct {
	Template string
}

// AwaitScheduledMessage expects "YYYY-MM-DD HH:MM message".
type AwaitScheduledMessage struct{}

func (AwaitAnnouncement) Name() string     { return "announcement" }
func (AwaitQuickQuiz) Name() string        { return "quick_quiz" }
func (AwaitDailyReminder) Name() string    { return "daily_reminder" }
func (AwaitQuizDetails) Name() string      { return "quiz_details" }
func (AwaitWelcome) Name() string          { return "welcome" }
func (AwaitWelcomeConfirm) Name() string   { return "welcome_confirm" }
func (AwaitScheduledMessage) Name() string { return "scheduled_message" }

func (AwaitAnnouncement) isStep()     {}
func (AwaitQuickQuiz) isStep()        {}
func (AwaitDailyReminder) isStep()    {}
func (AwaitQuizDetails) isStep()      {}
func (AwaitWelcome) isStep()          {}
func (AwaitWelcomeConfirm) isStep()   {}
func (AwaitScheduledMessage) isStep() {}
