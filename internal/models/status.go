package models

// Booking statuses (provider sub-order state machine).
const (
	BookingPending             = "pending"
	BookingPendingAppointment  = "pending_appointment"
	BookingConfirmed           = "confirmed"
	BookingCompleted           = "completed"
	BookingCancelled           = "cancelled"
	BookingRejected            = "rejected"
	BookingProviderRescheduled = "provider_rescheduled"
	BookingCustomerRescheduled = "customer_rescheduled"
)

// Delivery order statuses (courier fulfillment lifecycle).
const (
	DeliveryPending        = "pending"
	DeliveryAssigned       = "assigned"
	DeliveryReadyForPickup = "ready_for_pickup"
	DeliveryPickedUp       = "picked_up"
	DeliveryInTransit      = "in_transit"
	DeliveryDelivered      = "delivered"
	DeliveryCancelled      = "cancelled"
)

// Order origin tags.
const (
	OrderTypeApp    = "app"
	OrderTypeManual = "manual"
)

// BookingTransitions is the full transition table for bookings. A transition
// is legal if and only if the target appears under the source. Terminal states
// (completed, cancelled, rejected) have no entry.
var BookingTransitions = map[string][]string{
	BookingPending:             {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingPendingAppointment:  {BookingConfirmed, BookingRejected, BookingProviderRescheduled, BookingCustomerRescheduled, BookingCancelled},
	BookingConfirmed:           {BookingCompleted, BookingCancelled},
	BookingProviderRescheduled: {BookingConfirmed, BookingCancelled},
	BookingCustomerRescheduled: {BookingConfirmed, BookingCancelled},
}

// DeliveryTransitions gates courier-side status writes.
var DeliveryTransitions = map[string][]string{
	DeliveryPending:        {DeliveryAssigned, DeliveryReadyForPickup, DeliveryCancelled},
	DeliveryAssigned:       {DeliveryReadyForPickup, DeliveryPickedUp, DeliveryCancelled},
	DeliveryReadyForPickup: {DeliveryPickedUp, DeliveryCancelled},
	DeliveryPickedUp:       {DeliveryInTransit, DeliveryDelivered, DeliveryCancelled},
	DeliveryInTransit:      {DeliveryDelivered, DeliveryCancelled},
}

// CanTransitionBooking reports whether source -> target is in the booking table.
func CanTransitionBooking(source, target string) bool {
	for _, t := range BookingTransitions[source] {
		if t == target {
			return true
		}
	}
	return false
}

// CanTransitionDelivery reports whether source -> target is in the delivery table.
func CanTransitionDelivery(source, target string) bool {
	for _, t := range DeliveryTransitions[source] {
		if t == target {
			return true
		}
	}
	return false
}

// BookingToDeliveryStatus maps an accepted booking transition to the status
// that should be written on the linked delivery order. Statuses without a
// mapping leave the delivery order untouched.
var BookingToDeliveryStatus = map[string]string{
	BookingConfirmed: DeliveryPending,
	BookingCompleted: DeliveryReadyForPickup,
	BookingCancelled: DeliveryCancelled,
}

// Fulfillment levels summarise how far a booking or delivery order has
// progressed. The parent order status is gated on the minimum level across
// all active bookings.
const (
	LevelAccepted  = 1
	LevelConfirmed = 2
	LevelReady     = 3
	LevelPickedUp  = 4
	LevelDelivered = 5
)

// statusLevels maps every known status spelling, English and Arabic, to its
// fulfillment level. Legacy rows written by the mobile apps carry the Arabic
// spellings, so both must resolve identically. Unknown strings default to
// LevelAccepted.
var statusLevels = map[string]int{
	"pending":          LevelAccepted,
	"new":              LevelAccepted,
	"قيد الانتظار":     LevelAccepted,

	"confirmed":     LevelConfirmed,
	"accepted":      LevelConfirmed,
	"processing":    LevelConfirmed,
	"مؤكد":          LevelConfirmed,
	"قيد التنفيذ":   LevelConfirmed,

	"ready_for_pickup": LevelReady,
	"ready":            LevelReady,
	"prepared":         LevelReady,
	"completed":        LevelReady,
	"جاهز":             LevelReady,
	"جاهز للاستلام":    LevelReady,
	"مكتمل":            LevelReady,

	"picked_up":  LevelPickedUp,
	"in_transit": LevelPickedUp,
	"تم الاستلام": LevelPickedUp,
	"في الطريق":   LevelPickedUp,

	"delivered":  LevelDelivered,
	"تم التوصيل": LevelDelivered,
}

// inactiveStatuses are excluded from parent status aggregation entirely.
var inactiveStatuses = map[string]bool{
	"cancelled": true,
	"canceled":  true,
	"rejected":  true,
	"ملغي":      true,
	"مرفوض":     true,
}

// StatusLevel resolves a status string to its fulfillment level.
func StatusLevel(status string) int {
	if lvl, ok := statusLevels[status]; ok {
		return lvl
	}
	return LevelAccepted
}

// IsInactiveStatus reports whether a status removes a booking from the
// gatekeeping set.
func IsInactiveStatus(status string) bool {
	return inactiveStatuses[status]
}

// ParentStatusForLevel maps an aggregate fulfillment level back to the parent
// order status string.
func ParentStatusForLevel(level int) string {
	switch level {
	case LevelConfirmed:
		return BookingConfirmed
	case LevelReady:
		return DeliveryReadyForPickup
	case LevelPickedUp:
		return DeliveryPickedUp
	case LevelDelivered:
		return DeliveryDelivered
	default:
		return BookingPending
	}
}
