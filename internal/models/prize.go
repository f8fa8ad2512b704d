package models

import (
	"time"
)

// Prize types, as awarded by the wheel.
const (
	PrizePercentage   = "percentage"
	PrizeAmount       = "amount"
	PrizeFreeDelivery = "free_delivery"
)

// UserPrize is an awarded, possibly-redeemable reward. At most one booking
// may ever redeem a prize; the checkout transaction enforces this with a row
// lock, not an application-level check.
type UserPrize struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	PrizeType  string     `json:"prize_type"`
	Value      float64    `json:"value"`
	ProviderID *string    `json:"provider_id,omitempty"`
	IsUsed     bool       `json:"is_used"`
	WonAt      time.Time  `json:"won_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	BookingID  *string    `json:"booking_id,omitempty"`
}
