package models

import (
	"time"
)

// Event types published on the order event channel.
const (
	EventCheckoutCompleted     = "order.checkout_completed"
	EventBookingStatusChanged  = "booking.status_changed"
	EventDeliveryStatusChanged = "delivery.status_changed"
	EventCourierAssigned       = "delivery.courier_assigned"
	EventParentStatusChanged   = "order.parent_status_changed"
	EventParentReady           = "order.parent_ready"
)

// OrderEvent is the envelope pushed to the realtime channel after a primary
// write commits. Publishing is best-effort; a lost event never fails the
// operation that produced it.
type OrderEvent struct {
	Type          string    `json:"type"`
	ParentOrderID string    `json:"parent_order_id,omitempty"`
	BookingID     string    `json:"booking_id,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	CourierID     string    `json:"courier_id,omitempty"`
	CustomerID    string    `json:"customer_id,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	Note          string    `json:"note,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// PartitionKey returns the id of the most specific entity the event is
// about. Events for the same entity land on the same partition.
func (e *OrderEvent) PartitionKey() string {
	switch {
	case e.OrderID != "":
		return e.OrderID
	case e.BookingID != "":
		return e.BookingID
	case e.ParentOrderID != "":
		return e.ParentOrderID
	default:
		return e.Type
	}
}
