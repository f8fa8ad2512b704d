package models

import (
	"time"
)

// BookingItem is one line of a provider sub-order, snapshotted at checkout.
type BookingItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Booking is a single provider's portion of a parent order, or a standalone
// legacy order created outside the multi-provider checkout.
type Booking struct {
	ID              string        `json:"id"`
	CustomerID      string        `json:"customer_id"`
	ProviderID      string        `json:"provider_id"`
	ProviderName    string        `json:"provider_name"`
	ParentOrderID   *string       `json:"parent_order_id,omitempty"`
	DeliveryOrderID *string       `json:"delivery_order_id,omitempty"`
	Status          string        `json:"status"`
	Price           float64       `json:"price"`
	Discount        float64       `json:"discount"`
	Items           []BookingItem `json:"items"`
	AppointmentDate *time.Time    `json:"appointment_date,omitempty"`
	AppointmentType string        `json:"appointment_type,omitempty"`
	Manual          bool          `json:"manual"`
	UpdatedBy       string        `json:"updated_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// BookingUpdate names exactly the booking columns a mutation intends to touch.
// Nil fields are left as they are.
type BookingUpdate struct {
	Status          *string
	Price           *float64
	DeliveryOrderID *string
	AppointmentDate *time.Time
	UpdatedBy       *string
}

// BookingFulfillment is the joined row the parent sync protocol aggregates
// over: a booking's own status plus the status of its delivery leg, if any.
type BookingFulfillment struct {
	BookingID      string  `json:"booking_id"`
	Status         string  `json:"status"`
	DeliveryStatus *string `json:"delivery_status,omitempty"`
}

// Level is the booking's fulfillment level, taking the furthest of the
// booking itself and its delivery leg. A completed booking on its own only
// means the provider has the goods ready; picked_up and delivered can come
// from the delivery leg alone. A completed booking with no delivery leg has
// nothing left to ship, so it counts as delivered.
func (f BookingFulfillment) Level() int {
	lvl := StatusLevel(f.Status)
	if f.DeliveryStatus == nil {
		if f.Status == BookingCompleted || f.Status == "مكتمل" {
			return LevelDelivered
		}
		return lvl
	}
	if dl := StatusLevel(*f.DeliveryStatus); dl > lvl {
		lvl = dl
	}
	return lvl
}
