package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/vilatvok/rentbot/internal/telegram"
)

func (h *Handler) handleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	markup := tg.InlineKeyboard(
		tg.ButtonRow(tg.InlineButton("🖼 Reset avatar", "reset_avatar")),
		tg.ButtonRow(tg.InlineButton("🗑 Delete account", "delete_account")),
	)
	if err := tg.SendMarkdown(ctx, h.bot, chatID, "⚙️ *Settings*", markup); err != nil {
		h.replyErr(ctx, chatID, err)
	}
}

func (h *Handler) handleResetAvatar(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.answerCallback(ctx, b, update)
	if !ok {
		return
	}
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	if err := session.API().ResetAvatar(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Avatar reset to the default one.")
}

func (h *Handler) handleDeleteAccount(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.answerCallback(ctx, b, update)
	if !ok {
		return
	}
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	markup := tg.InlineKeyboard(
		tg.ButtonRow(tg.InlineButton("⚠️ Yes, delete my account", "confirm_delete_account")),
	)
	if err := tg.SendMarkdown(ctx, h.bot, chatID,
		"This deactivates your marketplace account. Are you sure?", markup); err != nil {
		h.replyErr(ctx, chatID, err)
	}
}

func (h *Handler) handleConfirmDeleteAccount(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.answerCallback(ctx, b, update)
	if !ok {
		return
	}
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	if err := session.API().DeleteMe(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	// The account is gone server-side; drop everything local too.
	h.closeChatBridge(session.TelegramID())
	if err := session.Logout(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "🗑 Account deleted. You can /register a new one any time.")
}

// answerCallback acknowledges an inline button press and resolves the
// Telegram conversation it came from.
func (h *Handler) answerCallback(ctx context.Context, b *bot.Bot, update *models.Update) (int64, bool) {
	if update.CallbackQuery == nil {
		return 0, false
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	if update.CallbackQuery.Message.Message == nil {
		return 0, false
	}
	return update.CallbackQuery.Message.Message.Chat.ID, true
}
