package router

import (
	"time"

	tg "github.com/m3rciful/groupbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM is the pending-step processor consulted before command lookup.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for private messages no flow claims.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// mediaEndpoints are forwarded to the FSM so flows can accept attachments.
var mediaEndpoints = []string{
	tele.OnPhoto, tele.OnVideo, tele.OnDocument, tele.OnAnimation, tele.OnAudio, tele.OnVoice,
}

// TextRoutes routes private text to the FSM while a step is pending, then to
// command lookup (aliases, "/cmd@bot"), then to the fallback. Group chatter is ignored.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if !isPrivate(c) {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
					return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
						return cmd.Handler(c)
					})
				}
			}
			logHandlerSummary(c, "group_chatter", start, "skip", "ok", nil)
			return nil
		}

		if fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if isPrivate(c) && fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm_media", start, "", "", func() error {
				return fsm.ManagerHandler(c)
			})
		}
		logHandlerSummary(c, "unexpected_media", start, "skip", "ok", nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: media})
	}
	return routes
}

func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}
