package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/domain"
)

// OfferForm is the creation payload. Prices travel as a JSON-encoded field
// inside the multipart form, matching the backend's form contract.
type OfferForm struct {
	Name        string
	Description string
	OfferType   domain.OfferType
	City        string
	Phone       string
	Prices      domain.OfferPrices
}

// OfferPatch is a partial update; nil fields are left untouched.
type OfferPatch struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	OfferType   *domain.OfferType   `json:"offer_type,omitempty"`
	City        *string             `json:"city,omitempty"`
	Phone       *string             `json:"phone,omitempty"`
	Prices      *domain.OfferPrices `json:"prices,omitempty"`
}

func (c *Client) ListOffers(ctx context.Context, page int) (*Page[domain.Offer], error) {
	var resp Page[domain.Offer]
	path := fmt.Sprintf("/offers/?page=%d&size=%d", page, config.OffersPerPage)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetOffer(ctx context.Context, offerID int64) (*domain.Offer, error) {
	var offer domain.Offer
	if err := c.getJSON(ctx, fmt.Sprintf("/offers/%d", offerID), &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// CreateOffer publishes a new offer. 201 Created with the stored record.
func (c *Client) CreateOffer(ctx context.Context, form OfferForm) (*domain.Offer, error) {
	prices, err := json.Marshal(form.Prices)
	if err != nil {
		return nil, fmt.Errorf("marshal prices: %w", err)
	}
	fields := map[string]string{
		"name":        form.Name,
		"description": form.Description,
		"offer_type":  string(form.OfferType),
		"city":        form.City,
		"phone":       form.Phone,
		"prices":      string(prices),
	}

	var offer domain.Offer
	if _, err := c.sendMultipart(ctx, http.MethodPost, "/offers/", fields, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// UpdateOffer patches an owned offer. 202 Accepted.
func (c *Client) UpdateOffer(ctx context.Context, offerID int64, patch OfferPatch) error {
	_, err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/offers/%d", offerID), patch, nil)
	return err
}

// DeleteOffer removes an owned offer. 204 No Content.
func (c *Client) DeleteOffer(ctx context.Context, offerID int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/offers/%d", offerID), "", nil, nil)
	return err
}

// CreateFeedback leaves a rating on an offer. 201 Created.
func (c *Client) CreateFeedback(ctx context.Context, offerID int64, rating int, text string) error {
	payload := struct {
		Rating int    `json:"rating"`
		Text   string `json:"text"`
	}{rating, text}
	_, err := c.postJSON(ctx, fmt.Sprintf("/offers/%d/feedback", offerID), payload, nil)
	return err
}

// ParsePrice converts user price input, rejecting negatives.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad price %q", domain.ErrValidation, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must be non-negative", domain.ErrValidation)
	}
	return d, nil
}
