package services

import (
	"errors"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

var (
	// ErrNotFound mirrors the storage sentinel so handlers never import the
	// storage package directly.
	ErrNotFound = storage.ErrNotFound

	// Checkout validation.
	ErrInvalidCart    = errors.New("cart is empty or contains invalid items")
	ErrInvalidAddress = errors.New("delivery address is incomplete")

	// Prize redemption.
	ErrPrizeNotRedeemable = errors.New("prize is already used or does not belong to this user")
	ErrPrizeNotApplicable = errors.New("prize does not apply to any provider in this cart")

	// Idempotency.
	ErrCheckoutInProgress     = errors.New("a checkout with this idempotency key is already in progress")
	ErrIdempotencyUnavailable = errors.New("idempotency guard is unavailable")

	// Status transitions.
	ErrIllegalTransition    = errors.New("status transition is not allowed")
	ErrManualOrderProtected = errors.New("manual orders are not managed by the booking flow")
	ErrOrderDeleted         = errors.New("order has been removed")
	ErrCourierOffline       = errors.New("courier is offline")
	ErrCourierBusy          = errors.New("courier still has active orders")
	ErrAppointmentRequired  = errors.New("an appointment date is required")
)

// IsDomainError reports whether err is a business outcome rather than an
// infrastructure failure. Domain errors must not count against circuit
// breakers.
func IsDomainError(err error) bool {
	for _, domain := range []error{
		ErrNotFound,
		ErrInvalidCart,
		ErrInvalidAddress,
		ErrPrizeNotRedeemable,
		ErrPrizeNotApplicable,
		ErrCheckoutInProgress,
		ErrIllegalTransition,
		ErrManualOrderProtected,
		ErrOrderDeleted,
		ErrCourierOffline,
		ErrCourierBusy,
		ErrAppointmentRequired,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
