package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/vilatvok/rentbot/internal/api"
	"github.com/vilatvok/rentbot/internal/auth"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/domain"
	"github.com/vilatvok/rentbot/internal/middleware"
	tg "github.com/vilatvok/rentbot/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	sessions *auth.Manager

	mu          sync.Mutex
	activeChats map[int64]*chatBridge
	handoffs    map[int64]*auth.GoogleHandoff
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Sessions *auth.Manager
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		sessions:    deps.Sessions,
		activeChats: make(map[int64]*chatBridge),
		handoffs:    make(map[int64]*auth.GoogleHandoff),
	}
}

// requireSession runs the guard in front of a protected command: a missing
// or dead session is reported to the user as a login prompt.
func (h *Handler) requireSession(ctx context.Context, chatID int64) *auth.Session {
	session := middleware.GetSession(ctx)
	if session == nil {
		return nil
	}
	if err := session.EnsureValid(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return nil
	}
	return session
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := tg.Send(ctx, h.bot, chatID, text); err != nil {
		slog.Error("reply failed", "error", err, "chat_id", chatID)
	}
}

// replyErr renders a failure to the user. Every error category gets an
// explicit message; failures never pass silently.
func (h *Handler) replyErr(ctx context.Context, chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, domain.ErrNoSession):
		text = "🔐 You are not logged in. Use /login <username> <password>."
	case errors.Is(err, domain.ErrSessionExpired):
		text = "🔐 Your session has expired. Please /login again."
	case errors.Is(err, domain.ErrUnauthorized):
		text = "🔐 The backend rejected your session. Please /login again."
	case errors.Is(err, domain.ErrForbidden):
		text = "🚫 You do not own that resource."
	case errors.Is(err, domain.ErrNotFound):
		text = "🔎 Not found."
	case errors.Is(err, domain.ErrAlreadyExists):
		text = "❌ Already exists."
	case errors.Is(err, domain.ErrValidation):
		text = "❌ " + validationDetail(err)
	case errors.Is(err, domain.ErrNoChat):
		text = "💬 No active chat. Open one with /chat <username>."
	case errors.Is(err, domain.ErrNotConnected):
		text = "📡 Chat connection is not open yet, try again in a moment."
	default:
		slog.Error("command failed", "error", err, "chat_id", chatID)
		text = "❌ Something went wrong, please try again."
	}
	h.reply(ctx, chatID, text)
}

// validationDetail prefers the backend's own message over the generic
// sentinel text.
func validationDetail(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
