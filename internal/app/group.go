package app

import (
	"context"
	"errors"
	"strconv"

	tgsender "github.com/m3rciful/groupbot/core/telegram/sender"
	"github.com/m3rciful/groupbot/internal/input"

	tele "gopkg.in/telebot.v4"
)

// groupAPI is the subset of *tele.Bot used to post into the managed group.
type groupAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Copy(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error)
	StopPoll(msg tele.Editable, opts ...interface{}) (*tele.Poll, error)
	Delete(msg tele.Editable) error
}

// Group posts into the managed group. Calls go through the sender's retry
// policy when a dispatcher is attached.
type Group struct {
	api    groupAPI
	chatID int64
	disp   *tgsender.Dispatcher
}

// NewGroup returns a poster for chatID. disp may be nil.
func NewGroup(api groupAPI, chatID int64, disp *tgsender.Dispatcher) *Group {
	return &Group{api: api, chatID: chatID, disp: disp}
}

// ChatID returns the managed group id.
func (g *Group) ChatID() int64 { return g.chatID }

func (g *Group) do(ctx context.Context, action, endpoint string, run func() error) error {
	if g.disp == nil {
		return run()
	}
	return g.disp.Do(ctx, action, endpoint, run)
}

func textOptions(markdown bool) *tele.SendOptions {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	return opts
}

// SendTo sends text to an arbitrary chat, such as the admin's private chat.
func (g *Group) SendTo(ctx context.Context, chatID int64, text string, markdown bool) error {
	return g.do(ctx, "send.text", "sendMessage", func() error {
		_, err := g.api.Send(tele.ChatID(chatID), text, textOptions(markdown))
		return err
	})
}

// SendGroup posts text to the group.
func (g *Group) SendGroup(ctx context.Context, text string, markdown bool) error {
	return g.SendTo(ctx, g.chatID, text, markdown)
}

// ReplyGroup posts text in the group as a reply to messageID.
func (g *Group) ReplyGroup(ctx context.Context, messageID int, text string, markdown bool) error {
	opts := textOptions(markdown)
	opts.ReplyTo = &tele.Message{ID: messageID, Chat: &tele.Chat{ID: g.chatID}}
	return g.do(ctx, "send.reply", "sendMessage", func() error {
		_, err := g.api.Send(tele.ChatID(g.chatID), text, opts)
		return err
	})
}

// Announce posts a Markdown announcement.
func (g *Group) Announce(ctx context.Context, text string) error {
	return g.SendGroup(ctx, text, true)
}

// AnnounceMedia copies a message from fromChatID into the group and follows it with footer.
func (g *Group) AnnounceMedia(ctx context.Context, fromChatID int64, messageID int, footer string) error {
	src := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: fromChatID}
	err := g.do(ctx, "send.copy", "copyMessage", func() error {
		_, err := g.api.Copy(tele.ChatID(g.chatID), src)
		return err
	})
	if err != nil || footer == "" {
		return err
	}
	return g.SendGroup(ctx, footer, true)
}

// SendQuiz posts a non-anonymous quiz poll and returns its poll id.
func (g *Group) SendQuiz(ctx context.Context, q input.Quiz) (string, error) {
	poll := &tele.Poll{
		Type:          tele.PollQuiz,
		Question:      q.Question,
		CorrectOption: q.Correct,
		OpenPeriod:    int(q.OpenPeriod.Seconds()),
		Anonymous:     false,
		Explanation:   "✅ Correct answer: " + q.Options[q.Correct],
	}
	for _, opt := range q.Options {
		poll.Options = append(poll.Options, tele.PollOption{Text: opt})
	}

	var msg *tele.Message
	err := g.do(ctx, "send.quiz", "sendPoll", func() error {
		var err error
		msg, err = g.api.Send(tele.ChatID(g.chatID), poll)
		return err
	})
	if err != nil {
		return "", err
	}
	if msg == nil || msg.Poll == nil || msg.Poll.ID == "" {
		return "", errors.New("sendPoll returned no poll")
	}
	return msg.Poll.ID, nil
}

// SendPoll posts a regular non-anonymous poll and returns the message id.
func (g *Group) SendPoll(ctx context.Context, question string, options []string) (int, error) {
	poll := &tele.Poll{Type: tele.PollRegular, Question: question, Anonymous: false}
	for _, opt := range options {
		poll.Options = append(poll.Options, tele.PollOption{Text: opt})
	}

	var msg *tele.Message
	err := g.do(ctx, "send.poll", "sendPoll", func() error {
		var err error
		msg, err = g.api.Send(tele.ChatID(g.chatID), poll)
		return err
	})
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, errors.New("sendPoll returned no message")
	}
	return msg.ID, nil
}

// StopPoll closes the poll in messageID.
func (g *Group) StopPoll(ctx context.Context, chatID int64, messageID int) error {
	ref := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	return g.do(ctx, "poll.stop", "stopPoll", func() error {
		_, err := g.api.StopPoll(ref)
		return err
	})
}

// Delete removes messageID from chatID.
func (g *Group) Delete(ctx context.Context, chatID int64, messageID int) error {
	ref := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	return g.do(ctx, "message.delete", "deleteMessage", func() error {
		return g.api.Delete(ref)
	})
}
