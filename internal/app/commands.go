package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/groupbot/core/telegram/commands"
	"github.com/m3rciful/groupbot/core/telegram/format"
	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"
	"github.com/m3rciful/groupbot/core/telegram/keyboard"
	"github.com/m3rciful/groupbot/internal/input"
	"github.com/m3rciful/groupbot/internal/settings"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCommands() {
	reg := a.registry
	add := func(name, desc string, access commands.Access, h tele.HandlerFunc, aliases ...string) {
		reg.RegisterCommand(name, commands.Command{Handler: h, Description: desc, Access: access, Aliases: aliases})
	}

	add("/start", "Main menu", commands.AccessMember, a.handleStart)
	add("/help", "Show available commands", commands.AccessAny, a.handleHelp, "madad")
	add("/cancel", "Cancel the current step", commands.AccessAny, a.handleCancel)
	add("/todayquiz", "Today's quiz details", commands.AccessMember, a.handleTodayQuiz, "ajkaquiz")
	add("/feedback", "Send feedback to the admin", commands.AccessMember, a.handleFeedback, "sujhavdo")

	add("/announce", "Post an announcement to the group", commands.AccessAdmin, a.beginStep(input.AwaitAnnouncement{}), "ghoshna")
	add("/quickquiz", "Send a timed quiz poll", commands.AccessAdmin, a.beginStep(input.AwaitQuickQuiz{}), "tezquiz")
	add("/setdailyreminder", "Set a daily reminder", commands.AccessAdmin, a.beginStep(input.AwaitDailyReminder{}), "yaaddilao")
	add("/setquiz", "Set today's quiz details", commands.AccessAdmin, a.beginStep(input.AwaitQuizDetails{}), "quizset")
	add("/setwelcome", "Change the welcome message", commands.AccessAdmin, a.beginStep(input.AwaitWelcome{}), "swagat")
	add("/schedule", "Schedule a message", commands.AccessAdmin, a.beginStep(input.AwaitScheduledMessage{}), "samaymsg")
	add("/scheduled", "List scheduled messages", commands.AccessAdmin, a.handleScheduled, "dekho")
	add("/clearscheduled", "Clear all scheduled messages", commands.AccessAdmin, a.handleClearScheduled, "saafkaro")
	add("/poll", "Create a timed poll", commands.AccessAdmin, a.handlePoll, "matdaan")
	add("/winners", "Announce the latest quiz winners", commands.AccessAdmin, a.handleWinners, "badhai")
	add("/reply", "Reply to a group message", commands.AccessAdmin, a.handleReply, "replykaro")
	add("/delete", "Delete the replied message", commands.AccessAdmin, a.handleDelete, "quizhatao")
	add("/motivate", "Send a motivational quote", commands.AccessAdmin, a.handleMotivate, "prerna")
	add("/studytip", "Send a study tip", commands.AccessAdmin, a.handleStudyTip, "padhai")
	add("/groupinfo", "Group information", commands.AccessAdmin, a.handleGroupInfo, "groupjaankari")
	add("/status", "Bot status", commands.AccessAdmin, a.handleStatus)
}

func isPrivate(c tele.Context) bool {
	return c.Chat() != nil && c.Chat().Type == tele.ChatPrivate
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func senderName(c tele.Context) string {
	u := c.Sender()
	if u == nil {
		return settings.DisplayName("", "", "")
	}
	return settings.DisplayName(u.FirstName, u.LastName, u.Username)
}

func (a *App) handleStart(c tele.Context) error {
	first := "there"
	if u := c.Sender(); u != nil && u.FirstName != "" {
		first = u.FirstName
	}
	text := "✅ Welcome, " + format.MD(first) + "! I'm your quiz bot assistant."
	if isPrivate(c) {
		text += "\n\nType /todayquiz to see today's quiz details or /help for everything else."
	} else {
		text += "\n\n💡 *Tip: Use a private chat with me for a better experience!*"
	}
	return tghelpers.SendMD(c, text)
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, a.helpText(a.isAdmin(senderID(c))))
}

func (a *App) handleCancel(c tele.Context) error {
	res := a.proc.Cancel(senderID(c))
	return tghelpers.SendText(c, res.Reply)
}

func (a *App) handleTodayQuiz(c tele.Context) error {
	first := ""
	if u := c.Sender(); u != nil {
		first = u.FirstName
	}
	return tghelpers.SendMD(c, todayQuizText(a.settings.QuizDetails(), first))
}

func (a *App) handleFeedback(c tele.Context) error {
	text := strings.TrimSpace(c.Message().Payload)
	if text == "" {
		return tghelpers.SendMD(c, "✍️ Please write your feedback after the command.\n\n*Example:* `/feedback The quizzes are very helpful!`")
	}
	ctx := tghelpers.BuildContext(c)
	u := c.Sender()
	username := "No username"
	if u.Username != "" {
		username = "@" + u.Username
	}
	body := fmt.Sprintf("📬 *New Feedback Received!*\n\n*From:* %s\n*Username:* %s\n*User ID:* `%d`\n*Time:* %s\n\n*Message:*\n%s",
		format.MD(senderName(c)), format.MD(username), u.ID, settings.Stamp(a.now(), a.loc), format.MD(text))
	if err := a.group.SendTo(ctx, a.cfg.Telegram.AdminID, body, true); err != nil {
		return tghelpers.SendText(c, "❌ Sorry, your feedback could not be sent. Please try again later.")
	}
	a.logActivity(ctx, "feedback", u.ID, senderName(c), text)
	return tghelpers.SendText(c, "✅ Thank you for your feedback! It has been sent to the admin. 🙏")
}

// beginStep returns a handler that puts the admin into step.
func (a *App) beginStep(step input.Step) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !isPrivate(c) {
			return tghelpers.SendText(c, "ℹ️ Please use this command in a private chat with me.")
		}
		res := a.proc.Begin(senderID(c), step)
		return a.sendResult(c, res)
	}
}

func (a *App) handleScheduled(c tele.Context) error {
	text, markup := a.scheduledView()
	return tghelpers.SendMD(c, text, markup)
}

// scheduledView lists pending messages with a delete button for each.
func (a *App) scheduledView() (string, *tele.ReplyMarkup) {
	msgs := a.sched.Messages()
	if len(msgs) == 0 {
		return "📅 No messages currently scheduled.", nil
	}
	var b strings.Builder
	b.WriteString("📅 *Scheduled Messages:*\n\n")
	rows := make([][]keyboard.InlineBtn, 0, len(msgs))
	for i, m := range msgs {
		kind := "once"
		if m.Recurring {
			kind = "daily"
		}
		fmt.Fprintf(&b, "*%d.* %s (%s)\n📝 %s\n\n", i+1, settings.Stamp(m.SendAt, a.loc), kind, format.MD(format.Truncate(m.Text, 50)))
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("🗑 Delete #%d", i+1),
			Unique: cbScheduleDelete,
			Data:   m.ID.String(),
		}})
	}
	fmt.Fprintf(&b, "Total: %d message(s) pending.", len(msgs))
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

func (a *App) handleClearScheduled(c tele.Context) error {
	n := a.sched.Clear()
	if n == 0 {
		return tghelpers.SendText(c, "📅 No scheduled messages to clear.")
	}
	ctx := tghelpers.BuildContext(c)
	a.logActivity(ctx, "clear_scheduled", senderID(c), senderName(c), fmt.Sprintf("%d", n))
	a.persist(ctx)
	return tghelpers.SendText(c, fmt.Sprintf("✅ Cleared %d scheduled message(s).", n))
}

func (a *App) handlePoll(c tele.Context) error {
	args := strings.TrimSpace(c.Message().Payload)
	if args == "" {
		return tghelpers.SendMD(c, pollUsage)
	}
	reply, err := a.createPoll(tghelpers.BuildContext(c), senderID(c), args)
	if err != nil {
		return tghelpers.SendText(c, "❌ "+userError(err))
	}
	return tghelpers.SendText(c, reply)
}

func (a *App) handleWinners(c tele.Context) error {
	reply, err := a.announceWinners(tghelpers.BuildContext(c), senderID(c))
	if err != nil {
		return tghelpers.SendText(c, "❌ Could not announce winners: "+userError(err))
	}
	return tghelpers.SendText(c, reply)
}

func (a *App) handleReply(c tele.Context) error {
	msg := c.Message()
	if msg.ReplyTo == nil {
		return tghelpers.SendMD(c, "❌ *Usage:* reply to a group message with `/reply Your response here`.")
	}
	text := strings.TrimSpace(msg.Payload)
	if text == "" {
		return tghelpers.SendText(c, "❌ Please provide a response message.")
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.group.ReplyGroup(ctx, msg.ReplyTo.ID, "📢 *Admin Response:*\n\n"+text, true); err != nil {
		return tghelpers.SendText(c, "❌ Failed to send response: "+userError(err))
	}
	a.logActivity(ctx, "reply", senderID(c), senderName(c), text)
	if !isPrivate(c) {
		_ = a.group.Delete(ctx, msg.Chat.ID, msg.ID)
		return nil
	}
	return tghelpers.SendText(c, "✅ Response sent to the group!")
}

func (a *App) handleDelete(c tele.Context) error {
	msg := c.Message()
	if msg.ReplyTo == nil {
		return tghelpers.SendMD(c, "❌ *Usage:* reply to a message and type `/delete`.\n\nYour command message is deleted too.")
	}
	ctx := tghelpers.BuildContext(c)
	if err := a.group.Delete(ctx, msg.Chat.ID, msg.ReplyTo.ID); err != nil {
		return tghelpers.SendText(c, "⚠️ Could not delete the message. It may be older than 48 hours, "+
			"already deleted, or I lack the permission.\n\nError: "+userError(err))
	}
	_ = a.group.Delete(ctx, msg.Chat.ID, msg.ID)
	a.logActivity(ctx, "delete", senderID(c), senderName(c), fmt.Sprintf("%d", msg.ReplyTo.ID))
	return nil
}

func (a *App) handleMotivate(c tele.Context) error {
	return a.sendPick(c, "motivate", quotes, "✅ Motivational quote sent to the group! 💪")
}

func (a *App) handleStudyTip(c tele.Context) error {
	return a.sendPick(c, "studytip", studyTips, "✅ Study tip sent to the group! 📚")
}

func (a *App) sendPick(c tele.Context, kind string, list []string, done string) error {
	ctx := tghelpers.BuildContext(c)
	if err := a.group.SendGroup(ctx, pick(list), true); err != nil {
		return tghelpers.SendText(c, "❌ Could not post to the group: "+userError(err))
	}
	a.logActivity(ctx, kind, senderID(c), senderName(c), "")
	return tghelpers.SendText(c, done)
}

func (a *App) handleGroupInfo(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	info, err := a.dir.Info(ctx)
	if err != nil {
		return tghelpers.SendText(c, "❌ Error fetching group information: "+userError(err))
	}
	return tghelpers.SendMD(c, a.groupInfoText(info))
}

func (a *App) groupInfoText(info GroupInfo) string {
	username := "Not set"
	if info.Username != "" {
		username = "@" + info.Username
	}
	desc := info.Description
	if desc == "" {
		desc = "No description set"
	}
	quizSet := "No"
	if a.settings.QuizDetails().IsSet {
		quizSet = "Yes"
	}
	return fmt.Sprintf("📊 *Group Information*\n\n"+
		"• *Name:* %s\n• *Type:* %s\n• *Members:* %d\n• *Username:* %s\n\n"+
		"*📝 Description:*\n%s\n\n"+
		"*🤖 Bot Statistics:*\n• *Scheduled Messages:* %d\n• *Active Polls:* %d\n• *Quiz Sessions:* %d\n• *Quiz Details Set:* %s\n\n"+
		"*🕐 Report Generated:* %s",
		format.MD(info.Title), format.MD(info.Type), info.Members, format.MD(username),
		format.MD(desc),
		len(a.sched.Messages()), len(a.sched.Polls()), a.tracker.Len(), quizSet,
		settings.Stamp(a.now(), a.loc))
}

func (a *App) handleStatus(c tele.Context) error {
	return tghelpers.SendText(c, a.statusText(tghelpers.BuildContext(c)))
}

// statusRecent is how many activity log entries /status shows.
const statusRecent = 5

func (a *App) statusText(ctx context.Context) string {
	var sent, failed uint64
	if a.disp != nil {
		sent, failed = a.disp.Stats()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🟢 Bot status\n\n"+
		"Scheduled messages: %d\nTimed polls: %d\nQuiz sessions: %d\nPending steps: %d\n"+
		"Replies sent: %d (failed %d)\nStorage: %s\nTime: %s",
		len(a.sched.Messages()), len(a.sched.Polls()), a.tracker.Len(), a.proc.Pending(),
		sent, failed, a.cfg.Storage.Driver, settings.Stamp(a.now(), a.loc))

	recent, err := a.store.RecentActivity(ctx, statusRecent)
	switch {
	case err != nil:
		b.WriteString("\n\nRecent activity: unavailable")
	case len(recent) > 0:
		b.WriteString("\n\nRecent activity:")
		for _, act := range recent {
			fmt.Fprintf(&b, "\n• %s %s", settings.Stamp(act.At, a.loc), act.Kind)
			if act.Detail != "" {
				b.WriteString(": " + format.Truncate(act.Detail, 40))
			}
		}
	}
	return b.String()
}

// sendResult replies with a processor result and its keyboard.
func (a *App) sendResult(c tele.Context, res input.Result) error {
	markup := resultKeyboard(res.Keyboard)
	if res.Markdown {
		return tghelpers.SendMD(c, res.Reply, markup)
	}
	if markup != nil {
		return tghelpers.SendText(c, res.Reply, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(c, res.Reply)
}

func resultKeyboard(k input.Keyboard) *tele.ReplyMarkup {
	switch k {
	case input.KeyboardQuizAnnounce:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "📢 Announce to group", Unique: cbQuizAnnounce},
			{Text: "🔒 Keep private", Unique: cbQuizKeep},
		})
	case input.KeyboardWelcomeConfirm:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "✅ Use it", Unique: cbWelcomeConfirm},
			{Text: "❌ Cancel", Unique: cbWelcomeCancel},
		})
	}
	return nil
}

// userError renders err for a chat reply, capitalised and without a bot token.
func userError(err error) string {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Description != "" {
		return apiErr.Description
	}
	msg := err.Error()
	if msg == "" {
		return "unknown error"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
