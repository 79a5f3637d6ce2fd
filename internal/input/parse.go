package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"
)

// Telegram limits for quiz polls.
const (
	MinQuizSeconds    = 5
	MaxQuizSeconds    = 600
	MaxQuestionLength = 300
	MaxOptionLength   = 100
	QuizOptionCount   = 4
)

var (
	ErrFieldCount   = errors.New("wrong number of fields")
	ErrEmptyField   = errors.New("empty field")
	ErrTooLong      = errors.New("field too long")
	ErrDuration     = errors.New("invalid quiz duration")
	ErrCorrectIndex = errors.New("invalid correct answer")
	ErrTime         = errors.New("invalid time")
	ErrEmptyMessage = errors.New("message text is empty")
)

// Quiz is a parsed quick quiz.
type Quiz struct {
	OpenPeriod time.Duration
	Question   string
	Options    []string
	// Correct is the 0-based index of the right option.
	Correct int
}

// Reminder is a parsed daily reminder.
type Reminder struct {
	Hour, Minute int
	Text         string
}

// Topic is a parsed "Time | Chapter | Level" line.
type Topic struct {
	Time, Chapter, Level string
}

// Dated is a parsed "YYYY-MM-DD HH:MM message" line.
type Dated struct {
	At   time.Time
	Text string
}

func splitPipes(line string, want int) ([]string, error) {
	parts := strings.Split(line, "|")
	if len(parts) != want {
		return nil, fmt.Errorf("%w: expected %d separated by |, got %d", ErrFieldCount, want, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return nil, fmt.Errorf("%w: field %d", ErrEmptyField, i+1)
		}
	}
	return parts, nil
}

// ParseQuiz parses "Seconds | Question | Opt1 | Opt2 | Opt3 | Opt4 | Correct(1-4)".
func ParseQuiz(line string) (Quiz, error) {
	parts, err := splitPipes(line, 3+QuizOptionCount)
	if err != nil {
		return Quiz{}, err
	}

	secs, err := strconv.Atoi(parts[0])
	if err != nil || secs < MinQuizSeconds || secs > MaxQuizSeconds {
		return Quiz{}, fmt.Errorf("%w: %q must be a whole number of seconds between %d and %d",
			ErrDuration, parts[0], MinQuizSeconds, MaxQuizSeconds)
	}

	question := parts[1]
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return Quiz{}, fmt.Errorf("%w: question exceeds %d characters", ErrTooLong, MaxQuestionLength)
	}
	options := parts[2 : 2+QuizOptionCount]
	for i, opt := range options {
		if utf8.RuneCountInString(opt) > MaxOptionLength {
			return Quiz{}, fmt.Errorf("%w: option %d exceeds %d characters", ErrTooLong, i+1, MaxOptionLength)
		}
	}

	correct, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || correct < 1 || correct > QuizOptionCount {
		return Quiz{}, fmt.Errorf("%w: %q must be 1, 2, 3 or 4", ErrCorrectIndex, parts[len(parts)-1])
	}

	return Quiz{
		OpenPeriod: time.Duration(secs) * time.Second,
		Question:   question,
		Options:    append([]string(nil), options...),
		Correct:    correct - 1,
	}, nil
}

// ParseReminder parses "HH:MM message".
func ParseReminder(line string) (Reminder, error) {
	clock, text, _ := strings.Cut(strings.TrimSpace(line), " ")
	h, m, ok := tghelpers.ParseClock(clock)
	if !ok {
		return Reminder{}, fmt.Errorf("%w: %q is not a 24-hour HH:MM time", ErrTime, clock)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reminder{}, ErrEmptyMessage
	}
	return Reminder{Hour: h, Minute: m, Text: text}, nil
}

// ParseTopic parses "Time | Chapter | Level".
func ParseTopic(line string) (Topic, error) {
	parts, err := splitPipes(line, 3)
	if err != nil {
		return Topic{}, err
	}
	return Topic{Time: parts[0], Chapter: parts[1], Level: parts[2]}, nil
}

// ParseDated parses "YYYY-MM-DD HH:MM message" in loc.
func ParseDated(line string, loc *time.Location) (Dated, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Dated{}, fmt.Errorf("%w: expected date, time and message", ErrFieldCount)
	}
	at, ok := tghelpers.ParseDateTime(fields[0]+" "+fields[1], loc)
	if !ok {
		return Dated{}, fmt.Errorf("%w: %q is not YYYY-MM-DD HH:MM", ErrTime, fields[0]+" "+fields[1])
	}
	// keep the body's own spacing and line breaks
	rest := strings.TrimSpace(line)
	for _, f := range fields[:2] {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, f))
	}
	if rest == "" {
		return Dated{}, ErrEmptyMessage
	}
	return Dated{At: at, Text: rest}, nil
}
