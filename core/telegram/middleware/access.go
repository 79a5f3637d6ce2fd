package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/groupbot/core/logger"
	tghelpers "github.com/m3rciful/groupbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only the configured admin reach downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != opts.AdminID {
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelInfo, "access.denied",
					slog.String("status", "skip"),
					slog.String("cause", "not_admin"),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// MembershipChecker reports whether a user belongs to the managed group.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// MemberOptions configures MemberOnlyMiddleware.
type MemberOptions struct {
	Checker MembershipChecker
	// AdminID always passes without a lookup.
	AdminID  int64
	OnReject tele.HandlerFunc
}

// MemberOnlyMiddleware requires the sender to be a member of the managed group.
// Lookup failures are treated as "not a member" and logged.
func MemberOnlyMiddleware(opts MemberOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			if user.ID == opts.AdminID || opts.Checker == nil {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			ok, err := opts.Checker.IsMember(ctx, user.ID)
			if err != nil {
				logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "membership.lookup",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			if ok {
				return next(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "access.denied",
				slog.String("status", "skip"),
				slog.String("cause", "not_member"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
