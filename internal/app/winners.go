package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/groupbot/core/logger"

	"github.com/m3rciful/groupbot/core/telegram/format"
	"github.com/m3rciful/groupbot/internal/quiz"
)

var (
	medals    = [quiz.WinnerCount]string{"🥇", "🥈", "🥉"}
	positions = [quiz.WinnerCount]string{"1st", "2nd", "3rd"}
)

// renderWinners formats a tally for the group.
func renderWinners(res quiz.Result) string {
	if res.TotalParticipants == 0 {
		return "🏁 The last quiz had no participants."
	}
	if len(res.Correct) == 0 {
		return "🤔 *Quiz Results*\n\nUnfortunately, no one answered the last quiz correctly.\n" +
			"Better luck next time! Keep practicing! 💪"
	}

	var b strings.Builder
	b.WriteString("🎉 *QUIZ RESULTS ARE IN!* 🎉\n\nCongratulations to our brilliant performers! 🏆\n\n")
	for i, w := range res.Winners {
		fmt.Fprintf(&b, "%s *%s Place:* %s\n   ⚡ Answered in %.1f seconds\n\n",
			medals[i], positions[i], format.MD(w.UserName), res.Elapsed(w).Seconds())
	}
	if rest := res.Correct[len(res.Winners):]; len(rest) > 0 {
		b.WriteString("🏅 *Other Correct Answers:*\n")
		for _, w := range rest {
			b.WriteString("• " + format.MD(w.UserName) + "\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "*Total Correct:* %d out of %d\n\nGreat job everyone! Keep learning and stay curious! 🚀📚",
		len(res.Correct), res.TotalParticipants)
	return b.String()
}

// errNoQuiz is returned by announceWinners when no quiz session is tracked.
var errNoQuiz = errors.New("no quiz has been conducted yet")

// announceWinners posts the leaderboard of the latest quiz to the group and
// stops tracking it. The reply summarises the outcome for the admin.
func (a *App) announceWinners(ctx context.Context, userID int64) (string, error) {
	pollID, ok := a.tracker.Latest()
	if !ok {
		return "😕 No quiz has been conducted yet. Use /quickquiz to start one.", nil
	}
	res, ok := a.tracker.Tally(pollID)
	if !ok {
		return "", errNoQuiz
	}
	if err := a.group.SendGroup(ctx, renderWinners(res), true); err != nil {
		return "", fmt.Errorf("post leaderboard: %w", err)
	}
	a.tracker.Evict(pollID)
	logger.LogEvent(ctx, logger.QUIZ, slog.LevelInfo, "quiz.winners",
		slog.String("status", "ok"),
		slog.String("poll_id", pollID),
		slog.Int("participants", res.TotalParticipants),
		slog.Int("correct", len(res.Correct)),
	)
	a.logActivity(ctx, "winners", userID, "", fmt.Sprintf("%s: %d/%d", res.Question, len(res.Correct), res.TotalParticipants))

	switch {
	case res.TotalParticipants == 0:
		return "ℹ️ Posted: the last quiz had no participants.", nil
	case len(res.Correct) == 0:
		return "ℹ️ Posted: no one answered correctly.", nil
	}
	return fmt.Sprintf("✅ Winners announced! %d correct out of %d.", len(res.Correct), res.TotalParticipants), nil
}
