package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vilatvok/rentbot/internal/middleware"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	welcome := "👋 Welcome to the rentals marketplace!\n\n" +
		"📋 Commands:\n" +
		"/register <username> <email> <password> — create an account\n" +
		"/login <username> <password> — sign in\n" +
		"/google — sign in with Google\n" +
		"/offers — browse offers\n" +
		"/newoffer — publish an offer\n" +
		"/profile [username] — view a profile\n" +
		"/company <name> — view a company\n" +
		"/chat <username> — message a user\n" +
		"/settings — account settings\n" +
		"/logout — sign out"
	h.reply(ctx, chatID, welcome)
}

func (h *Handler) handleRegister(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)

	// A pending federated handoff carries profile fields from the identity
	// provider; registration then goes through the social route and only
	// needs a username.
	h.mu.Lock()
	handoff := h.handoffs[session.TelegramID()]
	h.mu.Unlock()

	if handoff != nil {
		if len(parts) != 2 {
			h.reply(ctx, chatID, "Usage: /register <username>")
			return
		}
		fields := map[string]string{
			"username":  parts[1],
			"email":     handoff.Email,
			"social_id": handoff.GoogleID,
		}
		if handoff.Avatar != "" {
			fields["avatar"] = handoff.Avatar
		}
		if err := session.Register(ctx, "/auth/google-auth/register", fields); err != nil {
			h.replyErr(ctx, chatID, err)
			return
		}
		h.mu.Lock()
		delete(h.handoffs, session.TelegramID())
		h.mu.Unlock()
		h.reply(ctx, chatID, fmt.Sprintf("✅ Account created for %s. Sign in with /login.", handoff.Email))
		return
	}

	if len(parts) != 4 {
		h.reply(ctx, chatID, "Usage: /register <username> <email> <password>")
		return
	}
	fields := map[string]string{
		"username": parts[1],
		"email":    parts[2],
		"password": parts[3],
	}
	if err := session.Register(ctx, "/auth/register", fields); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Registered! Check your email for the confirmation letter, then use /confirm <token> and /login.")
}

func (h *Handler) handleConfirmRegistration(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	// /confirm is a prefix of /confirmreset; route the longer command on.
	if strings.HasPrefix(update.Message.Text, "/confirmreset") {
		h.handlePasswordResetConfirm(ctx, b, update)
		return
	}
	chatID := update.Message.Chat.ID
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 2 {
		h.reply(ctx, chatID, "Usage: /confirm <token>")
		return
	}

	user, err := session.API().ConfirmRegistration(ctx, parts[1])
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Account %s is active. Sign in with /login.", user.Username))
}

func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 3 {
		h.reply(ctx, chatID, "Usage: /login <username> <password>")
		return
	}

	result, err := session.Login(ctx, "/auth/login", parts[1], parts[2])
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	if result.Handoff != nil {
		h.mu.Lock()
		h.handoffs[session.TelegramID()] = result.Handoff
		h.mu.Unlock()
		h.reply(ctx, chatID, fmt.Sprintf(
			"🔗 This account is linked to Google (%s). Finish registration with /register <username>, or authorize here: %s",
			result.Handoff.Email, result.Handoff.URL,
		))
		return
	}

	h.reply(ctx, chatID, fmt.Sprintf("✅ Signed in as %s. Browse /offers or open a /chat.", result.Claims.Username))
}

func (h *Handler) handleGoogle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) == 1 {
		link, err := session.API().GoogleLink(ctx)
		if err != nil {
			h.replyErr(ctx, chatID, err)
			return
		}
		h.reply(ctx, chatID, "🔗 Authorize with Google, then send /google <code>:\n"+link)
		return
	}

	result, err := session.LoginGoogle(ctx, parts[1])
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	if result.Handoff != nil {
		h.mu.Lock()
		h.handoffs[session.TelegramID()] = result.Handoff
		h.mu.Unlock()
		h.reply(ctx, chatID, fmt.Sprintf(
			"🔗 No account for %s yet. Finish registration with /register <username>.",
			result.Handoff.Email,
		))
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Signed in as %s.", result.Claims.Username))
}

func (h *Handler) handleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := middleware.GetSession(ctx)
	if session == nil {
		return
	}

	h.closeChatBridge(session.TelegramID())
	if err := session.Logout(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "👋 Signed out. Use /login to sign in again.")
}

func (h *Handler) handleWhoami(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	claims := session.Claims()
	h.reply(ctx, chatID, fmt.Sprintf("👤 %s (id %d), session valid until %s.",
		claims.Username, claims.ID, claims.ExpiresAt.Format("2006-01-02 15:04:05")))
}
