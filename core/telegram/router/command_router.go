package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/groupbot/core/logger"
	tg "github.com/m3rciful/groupbot/core/telegram"
	"github.com/m3rciful/groupbot/core/telegram/commands"
	"github.com/m3rciful/groupbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures access checks applied to registered commands.
type CommandRouteOptions struct {
	AdminID        int64
	Membership     middleware.MembershipChecker
	OnAdminReject  tele.HandlerFunc
	OnMemberReject tele.HandlerFunc
}

// CommandRoutes turns every registered command into a route guarded by its access level.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})
	memberOnly := middleware.MemberOnlyMiddleware(middleware.MemberOptions{
		Checker:  opts.Membership,
		AdminID:  opts.AdminID,
		OnReject: opts.OnMemberReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		name, def := name, def
		h := def.Handler
		switch def.Access {
		case commands.AccessAdmin:
			h = adminOnly(h)
		case commands.AccessMember:
			h = memberOnly(h)
		}
		guarded := h
		h = func(c tele.Context) error {
			return handleWithSummary(c, normalizeHandlerName(name), time.Now(), "", "", func() error {
				return guarded(c)
			})
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + alias, Handler: h})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("count", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
