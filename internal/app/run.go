package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/groupbot/core/logger"
	coretelegram "github.com/m3rciful/groupbot/core/telegram"
	"github.com/m3rciful/groupbot/core/telegram/router"
	tgsender "github.com/m3rciful/groupbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// TelegramRunOptions wires the handlers, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.cfg == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: nil config")
	}
	disp := tgsender.NewDispatcher(tgsender.Options{
		MaxDuration:  30 * time.Second,
		MaxFloodWait: 10 * time.Second,
	})

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Dispatcher:  disp,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), a.onRateLimited),
		Routes: func(bot *tele.Bot) []coretelegram.Route {
			a.attach(bot, newBotDirectory(bot, a.cfg.Group.ID), disp)
			return a.routes()
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.Start(ctx)
			logger.TWire.Info("group bot started",
				slog.String("event", "app.wire"),
				slog.String("status", "ok"),
				slog.String("username", rt.Bot.Me.Username),
				slog.Int64("chat_id", a.cfg.Group.ID),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.Stop(ctx)
		},
	}, nil
}

func (a *App) routes() []coretelegram.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:        a.cfg.Telegram.AdminID,
		Membership:     a.dir,
		OnAdminReject:  a.onAdminReject,
		OnMemberReject: a.onMemberReject,
	})
	routes = append(routes, router.TextRoutes(a, a.registry, router.TextOptions{
		UnknownText: a.onUnknownText,
	})...)
	return append(routes,
		router.CallbackRoute(a.registry),
		coretelegram.Route{Endpoint: tele.OnPollAnswer, Handler: a.onPollAnswer},
		coretelegram.Route{Endpoint: tele.OnUserJoined, Handler: a.onUserJoined},
	)
}
