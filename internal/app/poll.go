package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/groupbot/internal/input"
	"github.com/m3rciful/groupbot/internal/schedule"
)

// Timed poll limits. Telegram allows 2 to 10 options.
const (
	MinPollOptions = 2
	MaxPollOptions = 10
	MaxPollMinutes = 7 * 24 * 60
)

// pollRequest is a parsed "/poll <minutes> | question | opt..." command.
type pollRequest struct {
	Minutes  int
	Question string
	Options  []string
}

func parsePoll(args string) (pollRequest, error) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2+MinPollOptions {
		return pollRequest{}, fmt.Errorf("%w: need minutes | question | at least %d options", input.ErrFieldCount, MinPollOptions)
	}
	if len(parts) > 2+MaxPollOptions {
		return pollRequest{}, fmt.Errorf("%w: a poll can have at most %d options", input.ErrFieldCount, MaxPollOptions)
	}
	for i, p := range parts {
		if p == "" {
			return pollRequest{}, fmt.Errorf("%w: field %d", input.ErrEmptyField, i+1)
		}
	}

	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes <= 0 || minutes > MaxPollMinutes {
		return pollRequest{}, fmt.Errorf("%w: %q must be a whole number of minutes between 1 and %d",
			input.ErrDuration, parts[0], MaxPollMinutes)
	}
	options := parts[2:]
	for i, opt := range options {
		if utf8.RuneCountInString(opt) > input.MaxOptionLength {
			return pollRequest{}, fmt.Errorf("%w: option %d exceeds %d characters", input.ErrTooLong, i+1, input.MaxOptionLength)
		}
	}
	req := pollRequest{Minutes: minutes, Question: parts[1], Options: options}
	if utf8.RuneCountInString(req.fullQuestion()) > input.MaxQuestionLength {
		return pollRequest{}, fmt.Errorf("%w: question exceeds %d characters", input.ErrTooLong, input.MaxQuestionLength)
	}
	return req, nil
}

func (r pollRequest) timer() string {
	if r.Minutes == 1 {
		return "1 minute"
	}
	return strconv.Itoa(r.Minutes) + " minutes"
}

func (r pollRequest) fullQuestion() string {
	return r.Question + "\n\n⏰ This poll will close in " + r.timer()
}

const pollUsage = "📊 *Create a Timed Poll*\n\n" +
	"Format: `/poll <minutes> | Question | Option1 | Option2...`\n\n" +
	"*Example:*\n`/poll 5 | What's your favorite subject? | Math | Science | History`\n\n" +
	"The poll closes automatically after the given minutes. 2 to 10 options."

// createPoll posts a timed poll to the group and queues its closing.
func (a *App) createPoll(ctx context.Context, userID int64, args string) (string, error) {
	req, err := parsePoll(args)
	if err != nil {
		return "", err
	}
	msgID, err := a.group.SendPoll(ctx, req.fullQuestion(), req.Options)
	if err != nil {
		return "", fmt.Errorf("send poll: %w", err)
	}
	a.sched.AddPoll(schedule.PollClose{
		ChatID:    a.group.ChatID(),
		MessageID: msgID,
		CloseAt:   a.now().Add(time.Duration(req.Minutes) * time.Minute),
		Question:  req.Question,
	})
	a.logActivity(ctx, "poll", userID, "", req.Question)
	a.persist(ctx)
	return "✅ Poll created and sent to group!\n⏰ Will auto-close in " + req.timer() + ".", nil
}
