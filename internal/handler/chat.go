package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vilatvok/rentbot/internal/chat"
	"github.com/vilatvok/rentbot/internal/domain"
)

// chatBridge relays one open chat room to a Telegram conversation. Outbound
// text goes through Send, inbound events are drained by a relay goroutine.
type chatBridge struct {
	session      *chat.Session
	peerUsername string
	tgChatID     int64
}

func (h *Handler) handleChats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	resp, err := session.API().ListChats(ctx, 1)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	if len(resp.Items) == 0 {
		h.reply(ctx, chatID, "💬 No conversations yet. Start one with /chat <username>.")
		return
	}

	claims := session.Claims()
	var sb strings.Builder
	sb.WriteString("💬 Your conversations:\n\n")
	for _, c := range resp.Items {
		peerID := c.FirstUserID
		if claims != nil && peerID == claims.ID {
			peerID = c.SecondUserID
		}
		fmt.Fprintf(&sb, "• chat #%d with user #%d\n", c.ID, peerID)
	}
	sb.WriteString("\nOpen one with /chat <username>.")
	h.reply(ctx, chatID, sb.String())
}

func (h *Handler) handleOpenChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text := update.Message.Text
	// Registered as a prefix handler, so /chats lands here too.
	if strings.HasPrefix(text, "/chats") {
		h.handleChats(ctx, b, update)
		return
	}

	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		h.reply(ctx, chatID, "Usage: /chat <username>")
		return
	}
	peerName := parts[1]

	claims := session.Claims()
	if claims != nil && peerName == claims.Username {
		h.reply(ctx, chatID, "🙃 You cannot chat with yourself.")
		return
	}

	h.mu.Lock()
	_, active := h.activeChats[session.TelegramID()]
	h.mu.Unlock()
	if active {
		h.replyErr(ctx, chatID, domain.ErrChatActive)
		return
	}

	peer, err := session.API().GetUser(ctx, peerName)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	roomID, err := session.API().ChatID(ctx, peer.ID)
	if errors.Is(err, domain.ErrNotFound) {
		var room *domain.Chat
		room, err = session.API().CreateChat(ctx, peer.ID)
		if err == nil {
			roomID = room.ID
		}
	}
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	bridge := &chatBridge{
		session: chat.NewSession(roomID, claims.ID, session.API(), session, chat.Options{
			WSBaseURL:  h.cfg.WSBaseURL,
			MaxRetries: h.cfg.ReconnectMaxRetries,
		}),
		peerUsername: peer.Username,
		tgChatID:     chatID,
	}

	// Detach from the update context so the room survives this handler.
	// Open before publishing the bridge, so a racing /leave always finds a
	// session it can cancel.
	bridge.session.Open(context.Background())

	h.mu.Lock()
	h.activeChats[session.TelegramID()] = bridge
	h.mu.Unlock()

	h.reply(ctx, chatID, fmt.Sprintf(
		"💬 Chat with %s opened. Type messages to send them, /leave to exit, /clearchat to clear history.",
		peer.Username,
	))

	go h.relayChat(session.TelegramID(), bridge)
}

// relayChat drains the room's event stream into the Telegram conversation
// until the stream closes, then tears the bridge down.
func (h *Handler) relayChat(telegramID int64, bridge *chatBridge) {
	ctx := context.Background()
	for ev := range bridge.session.Events() {
		switch {
		case ev.Message != nil:
			h.reply(ctx, bridge.tgChatID, formatChatMessage(ev.Message))
		case ev.Status != nil:
			if *ev.Status == chat.StatusOpen || *ev.Status == chat.StatusClosed {
				h.reply(ctx, bridge.tgChatID, "🔌 "+ev.Status.String())
			}
		case ev.Err != nil:
			h.reply(ctx, bridge.tgChatID, "⚠️ "+ev.Err.Error())
		}
	}

	h.mu.Lock()
	if h.activeChats[telegramID] == bridge {
		delete(h.activeChats, telegramID)
	}
	h.mu.Unlock()
}

func (h *Handler) handleLeaveChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	if !h.closeChatBridge(session.TelegramID()) {
		h.replyErr(ctx, chatID, domain.ErrNoChat)
		return
	}
	h.reply(ctx, chatID, "👋 Left the chat.")
}

func (h *Handler) handleClearChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	h.mu.Lock()
	bridge := h.activeChats[session.TelegramID()]
	h.mu.Unlock()
	if bridge == nil {
		h.replyErr(ctx, chatID, domain.ErrNoChat)
		return
	}

	if err := bridge.session.Clear(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "🧹 Chat history cleared.")
}

// HandleText routes free-form text from a Telegram conversation into its
// active chat room. Without an open room the text is ignored.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	h.mu.Lock()
	bridge := h.activeChats[update.Message.From.ID]
	h.mu.Unlock()
	if bridge == nil {
		return
	}

	err := bridge.session.Send(update.Message.Text)
	switch {
	case err == nil, errors.Is(err, domain.ErrBlankMessage):
	default:
		h.replyErr(ctx, update.Message.Chat.ID, err)
	}
}

// closeChatBridge tears down the account's active chat bridge, if any.
// Reports whether a bridge was open.
func (h *Handler) closeChatBridge(telegramID int64) bool {
	h.mu.Lock()
	bridge := h.activeChats[telegramID]
	delete(h.activeChats, telegramID)
	h.mu.Unlock()
	if bridge == nil {
		return false
	}
	bridge.session.Close()
	return true
}

func formatChatMessage(msg *domain.Message) string {
	return fmt.Sprintf("%s: %s", msg.Sender.Username, msg.Content)
}
