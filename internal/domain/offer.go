package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferType string

const (
	OfferHousing   OfferType = "housing"
	OfferTransport OfferType = "transport"
	OfferEquipment OfferType = "equipment"
)

// OfferPrices holds the rental rates per billing period. Zero means the
// period is not offered.
type OfferPrices struct {
	PerHour  decimal.Decimal `json:"per_hour"`
	PerDay   decimal.Decimal `json:"per_day"`
	PerMonth decimal.Decimal `json:"per_month"`
	PerYear  decimal.Decimal `json:"per_year"`
}

type OfferImage struct {
	Data string `json:"data"`
}

type Offer struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	OfferType   OfferType    `json:"offer_type"`
	City        string       `json:"city"`
	Phone       string       `json:"phone"`
	Prices      OfferPrices  `json:"prices"`
	Images      []OfferImage `json:"images"`
	Owner       string       `json:"owner"`
	CreatedAt   time.Time    `json:"created_at"`

	// Populated only on the single-offer endpoint.
	Feedbacks []Feedback `json:"feedbacks,omitempty"`
	AvgRating *float64   `json:"avg_rating,omitempty"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
