package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vilatvok/rentbot/internal/middleware"
)

func (h *Handler) handlePasswordChange(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text := update.Message.Text
	// Registered as a prefix handler; let more specific commands through.
	if !strings.HasPrefix(text, "/password ") && text != "/password" {
		return
	}

	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(text)
	if len(parts) != 3 {
		h.reply(ctx, chatID, "Usage: /password <old password> <new password>")
		return
	}

	if err := session.API().ChangePassword(ctx, parts[1], parts[2]); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Password changed.")
}

func (h *Handler) handlePasswordReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 2 {
		h.reply(ctx, chatID, "Usage: /resetpassword <email>")
		return
	}

	// Intentionally unauthenticated, a locked-out user needs this path.
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}
	if err := session.API().RequestPasswordReset(ctx, parts[1]); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "📬 If the email is registered, a reset letter is on its way.")
}

func (h *Handler) handlePasswordResetConfirm(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 4 {
		h.reply(ctx, chatID, "Usage: /confirmreset <token from email> <new password> <repeat password>")
		return
	}
	if parts[2] != parts[3] {
		h.reply(ctx, chatID, "❌ Passwords do not match.")
		return
	}

	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}
	if err := session.API().ConfirmPasswordReset(ctx, parts[1], parts[2], parts[3]); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Password reset. You can /login now.")
}
