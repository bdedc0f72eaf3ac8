package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that recovers from panics, logging the sender
// and conversation so the crash can be traced to an account.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					var chatID, userID int64
					if update.Message != nil {
						chatID = update.Message.Chat.ID
						if update.Message.From != nil {
							userID = update.Message.From.ID
						}
					} else if update.CallbackQuery != nil {
						if update.CallbackQuery.Message.Message != nil {
							chatID = update.CallbackQuery.Message.Message.Chat.ID
						}
						userID = update.CallbackQuery.From.ID
					}
					slog.Error("panic recovered in handler",
						"panic", r,
						"chat_id", chatID,
						"user_id", userID,
						"stack", string(debug.Stack()),
					)
				}
			}()
			next(ctx, b, update)
		}
	}
}
