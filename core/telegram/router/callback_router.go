package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/groupbot/core/telegram"
	"github.com/m3rciful/groupbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute dispatches inline button presses through the registry by unique key.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			h = reg.CallbackNotFound()
			extras = append(extras, slog.String("cause", "not_found"))
		}
		return handleWithSummary(c, name, start, "", "", func() error {
			err := h(c)
			// stop the client-side spinner; a handler that already answered makes this a no-op
			_ = c.Respond()
			return err
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
