package models

import (
	"time"
)

// Address is the structured delivery address captured at checkout.
type Address struct {
	Street   string  `json:"street"`
	City     string  `json:"city"`
	District string  `json:"district,omitempty"`
	Phone    string  `json:"phone"`
	Notes    string  `json:"notes,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// CartItem is a single checkout line as submitted by the client. Prices are
// accepted as already-computed inputs.
type CartItem struct {
	ProviderID   string  `json:"provider_id" binding:"required"`
	ProviderName string  `json:"provider_name"`
	Name         string  `json:"name" binding:"required"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

// ParentOrder is the aggregate checkout record spanning possibly many
// providers. Its status is derived from the bookings by the sync protocol and
// is never written directly, except at creation and on explicit cancellation.
type ParentOrder struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	Discount   float64   `json:"discount"`
	PrizeID    *string   `json:"prize_id,omitempty"`
	Status     string    `json:"status"`
	Details    string    `json:"details,omitempty"`
	Address    Address   `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CheckoutRequest carries the checkout inputs into the orchestrator.
type CheckoutRequest struct {
	UserID         string     `json:"user_id"`
	Items          []CartItem `json:"items" binding:"required"`
	Address        Address    `json:"address"`
	PrizeID        *string    `json:"prize_id,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
}

// CheckoutResult is the committed outcome of a checkout, also the payload
// cached for idempotent replays.
type CheckoutResult struct {
	ParentID   string   `json:"parent_id"`
	BookingIDs []string `json:"booking_ids"`
	Discount   float64  `json:"discount"`
	FinalPrice float64  `json:"final_price"`
}
