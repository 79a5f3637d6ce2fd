package app

import (
	"log/slog"

	"github.com/m3rciful/groupbot/core/logger"
	"github.com/m3rciful/groupbot/core/telegram/format"
	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"
	"github.com/m3rciful/groupbot/core/telegram/keyboard"
	"github.com/m3rciful/groupbot/internal/input"
	"github.com/m3rciful/groupbot/internal/settings"

	tele "gopkg.in/telebot.v4"
)

// InProgress reports whether userID has a pending admin step.
func (a *App) InProgress(userID int64) bool {
	return a.proc.InProgress(userID)
}

// ManagerHandler feeds a private message to the pending step of its sender.
func (a *App) ManagerHandler(c tele.Context) error {
	msg := c.Message()
	if msg == nil || c.Sender() == nil {
		return nil
	}
	in := input.Input{
		Text:      msg.Text,
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}
	if kind := mediaKind(msg); kind != "" {
		in.Media = true
		in.MediaKind = kind
		in.Text = msg.Caption
	}
	res, ok := a.proc.Handle(tghelpers.BuildContext(c), c.Sender().ID, in)
	if !ok {
		return nil
	}
	return a.sendResult(c, res)
}

func mediaKind(m *tele.Message) string {
	switch {
	case m.Photo != nil:
		return "photo"
	case m.Video != nil:
		return "video"
	case m.Animation != nil:
		return "animation"
	case m.Document != nil:
		return "document"
	case m.Audio != nil:
		return "audio"
	case m.Voice != nil:
		return "voice"
	}
	return ""
}

func (a *App) onPollAnswer(c tele.Context) error {
	ans := c.PollAnswer()
	if ans == nil || ans.Sender == nil {
		return nil
	}
	u := ans.Sender
	ctx := tghelpers.BuildContext(c)
	if len(ans.Options) == 0 {
		if a.tracker.Retract(ans.PollID, u.ID) {
			logger.LogEvent(ctx, logger.QUIZ, slog.LevelDebug, "quiz.retract",
				slog.String("status", "ok"),
				slog.String("poll_id", ans.PollID),
				slog.Int64("user_id", u.ID),
			)
		}
		return nil
	}
	name := settings.DisplayName(u.FirstName, u.LastName, u.Username)
	tracked, correct := a.tracker.Record(ans.PollID, u.ID, name, ans.Options[0], a.now())
	if !tracked {
		return nil
	}
	logger.LogEvent(ctx, logger.QUIZ, slog.LevelDebug, "quiz.answer",
		slog.String("status", "ok"),
		slog.String("poll_id", ans.PollID),
		slog.Int64("user_id", u.ID),
		slog.Int("option", ans.Options[0]),
		slog.Bool("correct", correct),
	)
	return nil
}

func (a *App) onUserJoined(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Chat == nil || msg.Chat.ID != a.cfg.Group.ID {
		return nil
	}
	joined := msg.UsersJoined
	if len(joined) == 0 && msg.UserJoined != nil {
		joined = []tele.User{*msg.UserJoined}
	}
	ctx := tghelpers.BuildContext(c)
	tmpl := a.settings.Welcome()
	for _, u := range joined {
		if u.IsBot {
			continue
		}
		name := settings.DisplayName(u.FirstName, u.LastName, u.Username)
		err := a.group.SendGroup(ctx, settings.RenderWelcome(tmpl, format.MD(name)), true)
		if err != nil {
			// templates are free text; retry without markup before giving up
			err = a.group.SendGroup(ctx, settings.RenderWelcome(tmpl, name), false)
		}
		status := "ok"
		if err != nil {
			status = "fail"
		}
		logger.LogEvent(ctx, logger.ADMIN, slog.LevelInfo, "welcome.send",
			slog.String("status", status),
			slog.Int64("user_id", u.ID),
			slog.String("err", errString(err)),
		)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// onUnknownText answers private text that no step or command claimed.
func (a *App) onUnknownText(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	admin := a.isAdmin(u.ID)
	if !admin {
		ok, err := a.dir.IsMember(tghelpers.BuildContext(c), u.ID)
		if err != nil || !ok {
			return a.joinPrompt(c)
		}
	}
	return tghelpers.SendText(c, unknownText(admin, u.FirstName))
}

func (a *App) joinPrompt(c tele.Context) error {
	return tghelpers.SendMD(c, joinPromptText, keyboard.JoinPrompt(a.cfg.Group.InviteLink, cbVerifyMember))
}

func (a *App) onAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, "❌ This command is only available to the admin.")
}

// onMemberReject shows the join prompt in private chats and stays silent in the group.
func (a *App) onMemberReject(c tele.Context) error {
	if !isPrivate(c) {
		return nil
	}
	return a.joinPrompt(c)
}

func (a *App) onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "⏳ Slow down a little."})
	}
	if !isPrivate(c) {
		return nil
	}
	return tghelpers.SendText(c, "⏳ You're sending messages too fast. Please wait a moment.")
}
