package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/vilatvok/rentbot/internal/telegram"
)

func (h *Handler) handleCompany(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) == 1 {
		resp, err := session.API().ListCompanies(ctx, 1)
		if err != nil {
			h.replyErr(ctx, chatID, err)
			return
		}
		if len(resp.Items) == 0 {
			h.reply(ctx, chatID, "🏢 No companies registered yet.")
			return
		}
		var sb strings.Builder
		sb.WriteString("🏢 Companies:\n\n")
		for _, company := range resp.Items {
			fmt.Fprintf(&sb, "• %s — /company %s\n", company.Name, company.Name)
		}
		h.reply(ctx, chatID, sb.String())
		return
	}

	name := strings.Join(parts[1:], " ")
	company, err := session.API().GetCompany(ctx, name)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏢 *%s*\n", company.Name)
	fmt.Fprintf(&sb, "📧 %s\n", company.Email)
	fmt.Fprintf(&sb, "👤 Owner: %s\n", company.Owner)

	offers, err := session.API().CompanyOffers(ctx, company.Name, 1)
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

func (h *Handler) handleRegisterCompany(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) != 3 {
		h.reply(ctx, chatID, "Usage: /regcompany <name> <email>")
		return
	}

	company, err := session.API().RegisterCompany(ctx, map[string]string{
		"name":  parts[1],
		"email": parts[2],
	})
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Company %s registered.", company.Name))
}

func (h *Handler) handleEditCompany(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 2 {
		h.reply(ctx, chatID, "Usage: /editcompany field=value ...\nFields: name, email")
		return
	}

	fields := make(map[string]string)
	for _, token := range parts[1:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok || (key != "name" && key != "email") {
			h.reply(ctx, chatID, "Usage: /editcompany field=value ...\nFields: name, email")
			return
		}
		fields[key] = value
	}

	company, err := session.API().UpdateCompany(ctx, fields)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Company %s updated.", company.Name))
}

func (h *Handler) handleDeleteCompany(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	if err := session.API().DeleteCompany(ctx); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "🗑 Company deleted.")
}
