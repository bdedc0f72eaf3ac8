package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Account
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/register", bot.MatchTypePrefix, h.handleRegister)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/confirm", bot.MatchTypePrefix, h.handleConfirmRegistration)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, h.handleLogin)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/google", bot.MatchTypePrefix, h.handleGoogle)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, h.handleLogout)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/whoami", bot.MatchTypePrefix, h.handleWhoami)

	// Profile and settings
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/profile", bot.MatchTypePrefix, h.handleProfile)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/setusername", bot.MatchTypePrefix, h.handleSetUsername)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/setemail", bot.MatchTypePrefix, h.handleSetEmail)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/password", bot.MatchTypePrefix, h.handlePasswordChange)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/resetpassword", bot.MatchTypePrefix, h.handlePasswordReset)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/confirmreset", bot.MatchTypePrefix, h.handlePasswordResetConfirm)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypePrefix, h.handleSettings)

	// Offers
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/offers", bot.MatchTypePrefix, h.handleOffers)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/offer", bot.MatchTypeExact, h.handleOfferUsage)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/offer ", bot.MatchTypePrefix, h.handleOffer)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/newoffer", bot.MatchTypePrefix, h.handleNewOffer)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editoffer", bot.MatchTypePrefix, h.handleEditOffer)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/deloffer", bot.MatchTypePrefix, h.handleDeleteOffer)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/feedback", bot.MatchTypePrefix, h.handleFeedback)

	// Companies
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/company", bot.MatchTypePrefix, h.handleCompany)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/regcompany", bot.MatchTypePrefix, h.handleRegisterCompany)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editcompany", bot.MatchTypePrefix, h.handleEditCompany)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delcompany", bot.MatchTypePrefix, h.handleDeleteCompany)

	// Chat
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chats", bot.MatchTypePrefix, h.handleChats)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chat", bot.MatchTypePrefix, h.handleOpenChat)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/leave", bot.MatchTypePrefix, h.handleLeaveChat)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clearchat", bot.MatchTypePrefix, h.handleClearChat)

	// Offers pagination callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "offers_page_", bot.MatchTypePrefix, h.handleOffersPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cur", bot.MatchTypeExact, h.handleNoop)

	// Settings callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "reset_avatar", bot.MatchTypePrefix, h.handleResetAvatar)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "delete_account", bot.MatchTypePrefix, h.handleDeleteAccount)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "confirm_delete_account", bot.MatchTypePrefix, h.handleConfirmDeleteAccount)
}

// handleNoop acknowledges non-interactive inline buttons such as the
// pagination indicator.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}
