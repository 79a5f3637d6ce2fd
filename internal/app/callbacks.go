package app

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/groupbot/core/logger"
	"github.com/m3rciful/groupbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Inline button keys.
const (
	cbVerifyMember   = "verify_member"
	cbQuizAnnounce   = "quiz_announce"
	cbQuizKeep       = "quiz_keep"
	cbWelcomeConfirm = "welcome_confirm"
	cbWelcomeCancel  = "welcome_cancel"
	cbScheduleDelete = "sched_del"
)

func (a *App) registerCallbacks() {
	for key, h := range map[string]tele.HandlerFunc{
		cbVerifyMember:   a.onVerifyMember,
		cbQuizAnnounce:   a.adminCallback(a.onQuizAnnounce),
		cbQuizKeep:       a.adminCallback(a.onQuizKeep),
		cbWelcomeConfirm: a.adminCallback(a.onWelcomeConfirm),
		cbWelcomeCancel:  a.adminCallback(a.onWelcomeCancel),
		cbScheduleDelete: a.adminCallback(a.onScheduleDelete),
	} {
		if err := a.registry.RegisterCallback(key, h); err != nil {
			logger.TWire.Error("callback registration failed",
				slog.String("event", "callback.register"),
				slog.String("status", "fail"),
				slog.String("cb_key", key),
				slog.String("err", err.Error()),
			)
		}
	}
}

// adminCallback answers non-admin presses with an alert instead of running h.
func (a *App) adminCallback(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.isAdmin(senderID(c)) {
			return c.Respond(&tele.CallbackResponse{Text: "❌ Only the admin can use this button.", ShowAlert: true})
		}
		return h(c)
	}
}

// forgetter drops cached membership answers.
type forgetter interface {
	Forget(userID int64)
}

func (a *App) onVerifyMember(c tele.Context) error {
	userID := senderID(c)
	if f, ok := a.dir.(forgetter); ok {
		f.Forget(userID)
	}
	ctx := tghelpers.BuildContext(c)
	ok, err := a.dir.IsMember(ctx, userID)
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "membership.verify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if !ok {
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ You are not a member yet. Please join the group first.",
			ShowAlert: true,
		})
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "✅ Membership verified!"})
	return tghelpers.EditOrSendMD(c, "✅ *Membership verified!* Welcome aboard.\n\nType /todayquiz to see today's quiz details or /help for everything else.")
}

func (a *App) onQuizAnnounce(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	d := a.settings.QuizDetails()
	if err := a.group.SendGroup(ctx, quizAnnouncement(d), true); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Could not post to the group: " + userError(err), ShowAlert: true})
	}
	a.logActivity(ctx, "quiz_announce", senderID(c), senderName(c), d.Chapter)
	return tghelpers.EditOrSendMD(c, "✅ *Quiz details updated and announced to the group!*\n\n"+quizDetailLines(d))
}

func (a *App) onQuizKeep(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, "✅ *Quiz details updated!* Members will see them with /todayquiz.\n\n"+quizDetailLines(a.settings.QuizDetails()))
}

func (a *App) onWelcomeConfirm(c tele.Context) error {
	res, ok := a.proc.ConfirmWelcome(tghelpers.BuildContext(c), senderID(c))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "ℹ️ Nothing to confirm."})
	}
	return tghelpers.EditOrSendMD(c, res.Reply)
}

func (a *App) onWelcomeCancel(c tele.Context) error {
	if !a.proc.RejectWelcome(senderID(c)) {
		return c.Respond(&tele.CallbackResponse{Text: "ℹ️ Nothing to cancel."})
	}
	return tghelpers.EditOrSendMD(c, "❌ Welcome message setup cancelled.")
}

func (a *App) onScheduleDelete(c tele.Context) error {
	id, err := uuid.Parse(callbacks.CallbackPayload(c))
	if err != nil || !a.sched.Remove(id) {
		_ = c.Respond(&tele.CallbackResponse{Text: "ℹ️ That message was already sent or removed."})
	} else {
		ctx := tghelpers.BuildContext(c)
		a.logActivity(ctx, "schedule_delete", senderID(c), senderName(c), id.String())
		a.persist(ctx)
		_ = c.Respond(&tele.CallbackResponse{Text: "🗑 Deleted."})
	}
	text, markup := a.scheduledView()
	return tghelpers.EditOrSendMD(c, text, markup)
}
