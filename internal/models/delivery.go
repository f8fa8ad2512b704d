package models

import (
	"time"
)

// DeliveryOrder is the courier fulfillment record. App-flow orders are
// created inside the checkout transaction; manual orders are created by an
// admin or courier and may already carry a courier id.
type DeliveryOrder struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"order_number"`
	CourierID     *string       `json:"courier_id,omitempty"`
	SupervisorID  string        `json:"supervisor_id,omitempty"`
	BookingID     *string       `json:"booking_id,omitempty"`
	Status        string        `json:"status"`
	Deleted       bool          `json:"deleted"`
	Edited        bool          `json:"edited"`
	Source        string        `json:"source"`
	OrderType     string        `json:"order_type"`
	Items         []BookingItem `json:"items"`
	DeliveryFee   float64       `json:"delivery_fee"`
	Modifications string        `json:"modifications,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Manual reports whether the order came from outside the app checkout flow.
func (d *DeliveryOrder) Manual() bool {
	return d.OrderType == OrderTypeManual || d.Source != OrderTypeApp
}

// DeliveryUpdate names exactly the delivery columns a mutation intends to
// touch. Nil fields are left as they are.
type DeliveryUpdate struct {
	Status        *string
	CourierID     *string
	Deleted       *bool
	Edited        *bool
	Modifications *string
}

// ManualOrderRequest carries the fields a supervisor supplies when creating
// an order outside the app checkout flow.
type ManualOrderRequest struct {
	SupervisorID string        `json:"supervisor_id"`
	CourierID    *string       `json:"courier_id,omitempty"`
	Items        []BookingItem `json:"items"`
	DeliveryFee  float64       `json:"delivery_fee"`
}

// GeoPoint is an optional courier location attached to a history entry.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OrderHistory is one append-only audit row for a delivery order status
// change. Rows are never mutated.
type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
	Geo       *GeoPoint `json:"geo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Courier is a delivery worker. Capacity nil means the configured default
// applies.
type Courier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Online   bool   `json:"online"`
	Capacity *int   `json:"capacity,omitempty"`
}
