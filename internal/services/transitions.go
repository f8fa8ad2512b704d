package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

// UpdateBookingStatus moves a booking through its state machine. On success
// the linked delivery order is advanced per the booking-to-delivery mapping,
// the parent order is re-aggregated and a status event is published. A
// completed booking routes through courier assignment before falling back to
// a plain ready_for_pickup write.
func (s *OrderService) UpdateBookingStatus(ctx context.Context, bookingID, target string, price *float64, actor string) (*models.Booking, error) {
	var (
		booking    *models.Booking
		needAssign bool
		deliveryID string
	)

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if !models.CanTransitionBooking(b.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.Status, target)
		}
		if target == models.BookingRejected && (b.Manual || b.DeliveryOrderID != nil) {
			return ErrManualOrderProtected
		}

		upd := models.BookingUpdate{Status: &target, UpdatedBy: &actor}
		if price != nil {
			upd.Price = price
		}
		if err := tx.UpdateBooking(ctx, bookingID, upd); err != nil {
			return err
		}

		if b.DeliveryOrderID != nil {
			mapped, ok := models.BookingToDeliveryStatus[target]
			if ok {
				d, err := tx.GetDeliveryOrderForUpdate(ctx, *b.DeliveryOrderID)
				if err != nil && err != storage.ErrNotFound {
					return err
				}
				if err == nil {
					if mapped == models.DeliveryReadyForPickup && !(d.Manual() && d.CourierID != nil) {
						// Assignment runs after commit so the row lock is
						// not held across the courier query.
						needAssign = true
						deliveryID = d.ID
					} else if d.Status != mapped {
						if err := applyDeliveryStatus(ctx, tx, d, mapped, actor, "booking "+target); err != nil {
							return err
						}
					}
				}
			}
		}

		b.Status = target
		if price != nil {
			b.Price = *price
		}
		b.UpdatedBy = actor
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogOrder("TRANSITION", bookingID, "Booking moved to "+target+" by "+actor)
	s.invalidate(ctx, booking)

	if needAssign {
		courier, err := s.AutoAssign(ctx, deliveryID, actor, models.DeliveryReadyForPickup)
		if err != nil {
			s.log.Warn("ASSIGN", "Auto-assignment for order "+deliveryID+" failed: "+err.Error())
		}
		if courier == nil {
			// No courier anywhere. The order still has to show as ready.
			if err := s.writeDeliveryStatus(ctx, deliveryID, models.DeliveryReadyForPickup, actor, "booking completed, no courier available"); err != nil {
				s.log.Warn("ASSIGN", "Fallback status write for order "+deliveryID+" failed: "+err.Error())
			}
		}
	}

	if booking.ParentOrderID != nil {
		s.SyncParentStatus(ctx, *booking.ParentOrderID)
	}

	s.publish(&models.OrderEvent{
		Type:       models.EventBookingStatusChanged,
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		Status:     target,
		Actor:      actor,
		Timestamp:  time.Now(),
	})

	return booking, nil
}

// RescheduleAppointment proposes a new appointment date. The side proposing
// determines the resulting status so the other side knows who to answer.
func (s *OrderService) RescheduleAppointment(ctx context.Context, bookingID string, newDate time.Time, actor string) (*models.Booking, error) {
	target := models.BookingCustomerRescheduled
	if actor == "provider" {
		target = models.BookingProviderRescheduled
	}

	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if !models.CanTransitionBooking(b.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.Status, target)
		}

		upd := models.BookingUpdate{Status: &target, AppointmentDate: &newDate, UpdatedBy: &actor}
		if err := tx.UpdateBooking(ctx, bookingID, upd); err != nil {
			return err
		}

		b.Status = target
		b.AppointmentDate = &newDate
		b.UpdatedBy = actor
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogOrder("RESCHEDULE", bookingID, fmt.Sprintf("Appointment moved to %s by %s", newDate.Format(time.RFC3339), actor))
	s.invalidate(ctx, booking)

	s.publish(&models.OrderEvent{
		Type:       models.EventBookingStatusChanged,
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		Status:     target,
		Actor:      actor,
		Timestamp:  time.Now(),
	})
	return booking, nil
}

// ConfirmAppointment accepts the currently proposed appointment and moves
// the booking to confirmed.
func (s *OrderService) ConfirmAppointment(ctx context.Context, bookingID, acceptedBy string) (*models.Booking, error) {
	var booking *models.Booking
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.AppointmentDate == nil {
			return ErrAppointmentRequired
		}
		target := models.BookingConfirmed
		if !models.CanTransitionBooking(b.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.Status, target)
		}

		upd := models.BookingUpdate{Status: &target, UpdatedBy: &acceptedBy}
		if err := tx.UpdateBooking(ctx, bookingID, upd); err != nil {
			return err
		}

		b.Status = target
		b.UpdatedBy = acceptedBy
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogOrder("CONFIRM", bookingID, "Appointment confirmed by "+acceptedBy)
	s.invalidate(ctx, booking)

	if booking.ParentOrderID != nil {
		s.SyncParentStatus(ctx, *booking.ParentOrderID)
	}

	s.publish(&models.OrderEvent{
		Type:       models.EventBookingStatusChanged,
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		Status:     models.BookingConfirmed,
		Actor:      acceptedBy,
		Timestamp:  time.Now(),
	})
	return booking, nil
}

// applyDeliveryStatus writes a mapped status on a delivery order and appends
// the audit row, inside the caller's transaction.
func applyDeliveryStatus(ctx context.Context, tx storage.Tx, d *models.DeliveryOrder, status, actor, note string) error {
	if err := tx.UpdateDeliveryOrder(ctx, d.ID, models.DeliveryUpdate{Status: &status}); err != nil {
		return err
	}
	return tx.AppendOrderHistory(ctx, &models.OrderHistory{
		OrderID:   d.ID,
		Status:    status,
		Actor:     actor,
		Note:      note,
		CreatedAt: time.Now(),
	})
}

// writeDeliveryStatus performs a standalone mapped status write in its own
// transaction, used when assignment found no courier.
func (s *OrderService) writeDeliveryStatus(ctx context.Context, orderID, status, actor, note string) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDeliveryOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if d.Status == status {
			return nil
		}
		return applyDeliveryStatus(ctx, tx, d, status, actor, note)
	})
	if err != nil {
		return err
	}

	s.publish(&models.OrderEvent{
		Type:      models.EventDeliveryStatusChanged,
		OrderID:   orderID,
		Status:    status,
		Actor:     actor,
		Timestamp: time.Now(),
	})
	return nil
}

// invalidate drops read-cache entries touched by a booking mutation.
func (s *OrderService) invalidate(ctx context.Context, b *models.Booking) {
	if s.cache == nil || b == nil {
		return
	}
	keys := []string{"booking:" + b.ID}
	if b.ParentOrderID != nil {
		keys = append(keys, "parent:"+*b.ParentOrderID)
	}
	if b.DeliveryOrderID != nil {
		keys = append(keys, "order:"+*b.DeliveryOrderID)
	}
	s.cache.CacheDel(ctx, keys...)
}
