package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vilatvok/rentbot/internal/config"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimit returns middleware that enforces a per-minute message limit per
// chat. Counters live in memory; a restart simply resets them.
func RateLimit() bot.Middleware {
	var mu sync.Mutex
	windows := make(map[int64]*rateWindow)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			now := time.Now()

			mu.Lock()
			w, ok := windows[chatID]
			if !ok || now.Sub(w.start) >= time.Minute {
				w = &rateWindow{start: now}
				windows[chatID] = w
			}
			w.count++
			limited := w.count > config.RateLimitPerMinute
			mu.Unlock()

			if limited {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests, slow down a little.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
