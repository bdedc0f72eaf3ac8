package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vilatvok/rentbot/internal/auth"
)

type ctxKey string

const SessionKey ctxKey = "session"

// GetSession extracts the account session from context.
func GetSession(ctx context.Context) *auth.Session {
	s, ok := ctx.Value(SessionKey).(*auth.Session)
	if !ok {
		return nil
	}
	return s
}

// SessionLoader returns middleware that resolves the sender's marketplace
// session and puts it into context. Every downstream handler receives the
// session explicitly; protected ones guard it with EnsureValid.
func SessionLoader(sessions *auth.Manager) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			session := sessions.Session(ctx, from.ID)
			ctx = context.WithValue(ctx, SessionKey, session)
			next(ctx, b, update)
		}
	}
}
