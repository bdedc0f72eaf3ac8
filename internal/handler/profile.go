package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/vilatvok/rentbot/internal/telegram"
)

func (h *Handler) handleProfile(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	username := session.Claims().Username
	if parts := strings.Fields(update.Message.Text); len(parts) == 2 {
		username = parts[1]
	}

	user, err := session.API().GetUser(ctx, username)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 *%s*\n", user.Username)
	fmt.Fprintf(&sb, "📧 %s\n", user.Email)
	if user.Provider != "" {
		fmt.Fprintf(&sb, "🔗 Signed in via %s\n", user.Provider)
	}

	offers, err := session.API().UserOffers(ctx, user.Username, 1)
	if err == nil && offers.Total > 0 {
		fmt.Fprintf(&sb, "\n🏠 Offers (%d):\n", offers.Total)
		for _, offer := range offers.Items {
			fmt.Fprintf(&sb, "• #%d %s\n", offer.ID, offer.Name)
		}
	}

	if err := tg.SendMarkdown(ctx, h.bot, chatID, sb.String(), nil); err != nil {
		h.replyErr(ctx, chatID, err)
	}
}

// handleSetUsername renames the account. The identity token carries the
// username, so a successful rename is followed by one token refresh that
// reissues both tokens under the new name.
func (h *Handler) handleSetUsername(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 2 {
		h.reply(ctx, chatID, "Usage: /setusername <new username>")
		return
	}

	user, err := session.API().UpdateMe(ctx, map[string]string{"username": parts[1]})
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	if err := session.RefreshWithUsername(ctx, user.Username); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ You are now %s.", user.Username))
}

func (h *Handler) handleSetEmail(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 2 {
		h.reply(ctx, chatID, "Usage: /setemail <new email>")
		return
	}

	user, err := session.API().UpdateMe(ctx, map[string]string{"email": parts[1]})
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Email updated to %s.", user.Email))
}
