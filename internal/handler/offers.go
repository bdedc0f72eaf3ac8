package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/vilatvok/rentbot/internal/api"
	"github.com/vilatvok/rentbot/internal/domain"
	tg "github.com/vilatvok/rentbot/internal/telegram"
)

func (h *Handler) handleOffers(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	h.sendOffersPage(ctx, session.API(), chatID, 0, false, 0)
}

func (h *Handler) handleOffersPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	if update.CallbackQuery.Message.Message == nil {
		return
	}
	msg := update.CallbackQuery.Message.Message
	chatID := msg.Chat.ID

	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	page, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "offers_page_"))
	if err != nil {
		return
	}
	h.sendOffersPage(ctx, session.API(), chatID, page, true, msg.ID)
}

func (h *Handler) sendOffersPage(ctx context.Context, client *api.Client, chatID int64, page int, edit bool, messageID int) {
	// The backend paginates from 1.
	resp, err := client.ListOffers(ctx, page+1)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	if len(resp.Items) == 0 {
		h.reply(ctx, chatID, "🏠 No offers yet. Publish one with /newoffer.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏠 *Offers:*\n\n")
	for _, offer := range resp.Items {
		sb.WriteString(formatOfferPreview(&offer))
		sb.WriteString("\n")
	}
	sb.WriteString("\nDetails: /offer <id>")

	totalPages := resp.Pages
	if totalPages == 0 {
		totalPages = 1
	}
	markup := tg.InlineKeyboard(tg.PaginationRow(page, totalPages, "offers_page"))

	if edit {
		_, err = h.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        sb.String(),
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: markup,
		})
		if err == nil {
			return
		}
	}
	if err := tg.SendMarkdown(ctx, h.bot, chatID, sb.String(), markup); err != nil {
		h.replyErr(ctx, chatID, err)
	}
}

func (h *Handler) handleOfferUsage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.reply(ctx, update.Message.Chat.ID, "Usage: /offer <id>")
}

func (h *Handler) handleOffer(ctx context.Context, b *bot.Bot, update *models.Update) {
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
		h.reply(ctx, chatID, "Usage: /offer <id>")
		return
	}
	offerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "Usage: /offer <id>")
		return
	}

	offer, err := session.API().GetOffer(ctx, offerID)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	if err := tg.SendMarkdown(ctx, h.bot, chatID, formatOfferDetail(offer), nil); err != nil {
		h.replyErr(ctx, chatID, err)
	}
}

func (h *Handler) handleNewOffer(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	args := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/newoffer"))
	form, err := parseOfferForm(args)
	if err != nil {
		h.reply(ctx, chatID,
			"Usage: /newoffer <name> | <housing|transport|equipment> | <city> | <phone> | <prices> | <description>\n"+
				"Prices: day=25 month=500 (hour/day/month/year)")
		return
	}

	offer, err := session.API().CreateOffer(ctx, *form)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Offer #%d published.", offer.ID))
}

func (h *Handler) handleEditOffer(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.Fields(update.Message.Text)
	if len(parts) < 3 {
		h.reply(ctx, chatID, "Usage: /editoffer <id> field=value ...\nFields: name, city, phone, type, description, hour, day, month, year")
		return
	}
	offerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "Usage: /editoffer <id> field=value ...")
		return
	}

	patch, err := parseOfferPatch(strings.Join(parts[2:], " "))
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	if err := session.API().UpdateOffer(ctx, offerID, *patch); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}

	// Render the server-confirmed record, not the submitted values.
	offer, err := session.API().GetOffer(ctx, offerID)
	if err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Offer #%d updated.", offer.ID))
}

func (h *Handler) handleDeleteOffer(ctx context.Context, b *bot.Bot, update *models.Update) {
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
		h.reply(ctx, chatID, "Usage: /deloffer <id>")
		return
	}
	offerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "Usage: /deloffer <id>")
		return
	}

	if err := session.API().DeleteOffer(ctx, offerID); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("🗑 Offer #%d deleted.", offerID))
}

func (h *Handler) handleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	session := h.requireSession(ctx, chatID)
	if session == nil {
		return
	}

	parts := strings.SplitN(update.Message.Text, " ", 4)
	if len(parts) < 4 {
		h.reply(ctx, chatID, "Usage: /feedback <offer id> <rating 1-5> <text>")
		return
	}
	offerID, err1 := strconv.ParseInt(parts[1], 10, 64)
	rating, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || rating < 1 || rating > 5 {
		h.reply(ctx, chatID, "Usage: /feedback <offer id> <rating 1-5> <text>")
		return
	}

	if err := session.API().CreateFeedback(ctx, offerID, rating, parts[3]); err != nil {
		h.replyErr(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Feedback saved, thank you!")
}

// parseOfferForm parses the pipe-separated /newoffer arguments.
func parseOfferForm(args string) (*api.OfferForm, error) {
	fields := strings.Split(args, "|")
	if len(fields) != 6 {
		return nil, domain.ErrValidation
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	offerType := domain.OfferType(fields[1])
	switch offerType {
	case domain.OfferHousing, domain.OfferTransport, domain.OfferEquipment:
	default:
		return nil, domain.ErrValidation
	}

	prices, err := parsePrices(fields[4])
	if err != nil {
		return nil, err
	}

	form := &api.OfferForm{
		Name:        fields[0],
		OfferType:   offerType,
		City:        fields[2],
		Phone:       fields[3],
		Prices:      prices,
		Description: fields[5],
	}
	if form.Name == "" || form.City == "" || form.Phone == "" || form.Description == "" {
		return nil, domain.ErrValidation
	}
	return form, nil
}

// parsePrices parses "day=25 month=500" style rate lists.
func parsePrices(s string) (domain.OfferPrices, error) {
	var prices domain.OfferPrices
	any := false
	for _, token := range strings.Fields(s) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return prices, fmt.Errorf("%w: bad price %q", domain.ErrValidation, token)
		}
		d, err := api.ParsePrice(value)
		if err != nil {
			return prices, err
		}
		switch key {
		case "hour":
			prices.PerHour = d
		case "day":
			prices.PerDay = d
		case "month":
			prices.PerMonth = d
		case "year":
			prices.PerYear = d
		default:
			return prices, fmt.Errorf("%w: unknown price period %q", domain.ErrValidation, key)
		}
		any = true
	}
	if !any {
		return prices, fmt.Errorf("%w: at least one price required", domain.ErrValidation)
	}
	return prices, nil
}

// parseOfferPatch parses "field=value" pairs into a partial update.
func parseOfferPatch(args string) (*api.OfferPatch, error) {
	patch := &api.OfferPatch{}
	var prices *domain.OfferPrices

	for _, token := range splitPatchTokens(args) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected field=value, got %q", domain.ErrValidation, token)
		}
		switch key {
		case "name":
			patch.Name = &value
		case "city":
			patch.City = &value
		case "phone":
			patch.Phone = &value
		case "description":
			patch.Description = &value
		case "type":
			t := domain.OfferType(value)
			switch t {
			case domain.OfferHousing, domain.OfferTransport, domain.OfferEquipment:
				patch.OfferType = &t
			default:
				return nil, fmt.Errorf("%w: unknown offer type %q", domain.ErrValidation, value)
			}
		case "hour", "day", "month", "year":
			d, err := api.ParsePrice(value)
			if err != nil {
				return nil, err
			}
			if prices == nil {
				prices = &domain.OfferPrices{}
			}
			switch key {
			case "hour":
				prices.PerHour = d
			case "day":
				prices.PerDay = d
			case "month":
				prices.PerMonth = d
			case "year":
				prices.PerYear = d
			}
		default:
			return nil, fmt.Errorf("%w: unknown field %q", domain.ErrValidation, key)
		}
	}
	patch.Prices = prices
	return patch, nil
}

// splitPatchTokens splits on spaces but keeps "description=long text" intact
// by treating description as a trailing field.
func splitPatchTokens(args string) []string {
	if idx := strings.Index(args, "description="); idx >= 0 {
		head := strings.Fields(args[:idx])
		return append(head, strings.TrimSpace(args[idx:]))
	}
	return strings.Fields(args)
}

func formatOfferPreview(offer *domain.Offer) string {
	return fmt.Sprintf("*#%d %s* — %s, %s\n%s",
		offer.ID, offer.Name, offer.City, offer.OfferType, formatPrices(offer.Prices))
}

func formatOfferDetail(offer *domain.Offer) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*#%d %s*\n", offer.ID, offer.Name)
	fmt.Fprintf(&sb, "📍 %s · %s\n", offer.City, offer.OfferType)
	fmt.Fprintf(&sb, "📞 %s\n", offer.Phone)
	fmt.Fprintf(&sb, "💰 %s\n", formatPrices(offer.Prices))
	fmt.Fprintf(&sb, "👤 Owner: %s\n\n%s\n", offer.Owner, offer.Description)

	if offer.AvgRating != nil {
		fmt.Fprintf(&sb, "\n⭐️ %.1f (%d reviews)\n", *offer.AvgRating, len(offer.Feedbacks))
	}
	for _, fb := range offer.Feedbacks {
		fmt.Fprintf(&sb, "— %s (%d/5): %s\n", fb.User, fb.Rating, fb.Text)
	}
	return sb.String()
}

func formatPrices(prices domain.OfferPrices) string {
	var parts []string
	add := func(label string, d decimal.Decimal) {
		if d.IsPositive() {
			parts = append(parts, fmt.Sprintf("%s/%s", d.StringFixed(2), label))
		}
	}
	add("hour", prices.PerHour)
	add("day", prices.PerDay)
	add("month", prices.PerMonth)
	add("year", prices.PerYear)
	if len(parts) == 0 {
		return "price on request"
	}
	return strings.Join(parts, ", ")
}
