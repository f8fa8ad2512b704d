package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

// UpdateDeliveryStatus moves a delivery order along its lifecycle, appends
// the audit row with the courier's location when supplied, and re-aggregates
// the parent order.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, orderID, status, actor, note string, geo *models.GeoPoint) error {
	var (
		courierID string
		bookingID *string
	)

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDeliveryOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if d.Deleted {
			return ErrOrderDeleted
		}
		if !models.CanTransitionDelivery(d.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Status, status)
		}
		if d.CourierID != nil {
			courierID = *d.CourierID
		}
		bookingID = d.BookingID

		if err := tx.UpdateDeliveryOrder(ctx, orderID, models.DeliveryUpdate{Status: &status}); err != nil {
			return err
		}
		return tx.AppendOrderHistory(ctx, &models.OrderHistory{
			OrderID:   orderID,
			Status:    status,
			Actor:     actor,
			Note:      note,
			Geo:       geo,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.log.LogOrder("DELIVERY", orderID, "Delivery status -> "+status+" by "+actor)
	if s.cache != nil {
		s.cache.CacheDel(ctx, "order:"+orderID)
	}

	s.publish(&models.OrderEvent{
		Type:      models.EventDeliveryStatusChanged,
		OrderID:   orderID,
		CourierID: courierID,
		Status:    status,
		Actor:     actor,
		Timestamp: time.Now(),
	})

	if bookingID != nil {
		if b, err := s.store.GetBooking(ctx, *bookingID); err == nil && b.ParentOrderID != nil {
			s.SyncParentStatus(ctx, *b.ParentOrderID)
		}
	}
	return nil
}

// CreateManualOrder registers a delivery order that did not come from the
// app checkout, for example one phoned in to a supervisor. When a courier id
// is supplied the order starts out assigned to them and auto-assignment will
// never take it away.
func (s *OrderService) CreateManualOrder(ctx context.Context, req *models.ManualOrderRequest) (*models.DeliveryOrder, error) {
	if len(req.Items) == 0 {
		return nil, ErrInvalidCart
	}
	if req.CourierID != nil {
		courier, err := s.store.GetCourier(ctx, *req.CourierID)
		if err != nil {
			return nil, err
		}
		if !courier.Online {
			return nil, fmt.Errorf("%w: %s", ErrCourierOffline, courier.ID)
		}
	}

	now := time.Now()
	order := &models.DeliveryOrder{
		ID:           uuid.NewString(),
		OrderNumber:  utils.GenerateOrderNumber(),
		CourierID:    req.CourierID,
		SupervisorID: req.SupervisorID,
		Status:       models.DeliveryPending,
		Source:       models.OrderTypeManual,
		OrderType:    models.OrderTypeManual,
		Items:        req.Items,
		DeliveryFee:  req.DeliveryFee,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if order.DeliveryFee == 0 {
		order.DeliveryFee = s.cfg.DefaultDeliveryFee
	}
	if req.CourierID != nil {
		order.Status = models.DeliveryAssigned
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateDeliveryOrder(ctx, order); err != nil {
			return err
		}
		return tx.AppendOrderHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Status:    order.Status,
			Actor:     req.SupervisorID,
			Note:      "manual order created",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.LogOrder("MANUAL", order.ID, "Manual order "+order.OrderNumber+" created by "+req.SupervisorID)

	event := &models.OrderEvent{
		Type:      models.EventDeliveryStatusChanged,
		OrderID:   order.ID,
		Status:    order.Status,
		Actor:     req.SupervisorID,
		Timestamp: now,
	}
	if req.CourierID != nil {
		event.Type = models.EventCourierAssigned
		event.CourierID = *req.CourierID
	}
	s.publish(event)

	return order, nil
}

// RemoveDeliveryOrder soft-deletes an order. The row stays for the audit
// trail and drops out of workload counts and parent aggregation.
func (s *OrderService) RemoveDeliveryOrder(ctx context.Context, orderID, actor string) error {
	return s.setDeleted(ctx, orderID, actor, true, "order removed")
}

// RestoreDeliveryOrder brings a soft-deleted order back.
func (s *OrderService) RestoreDeliveryOrder(ctx context.Context, orderID, actor string) error {
	return s.setDeleted(ctx, orderID, actor, false, "order restored")
}

func (s *OrderService) setDeleted(ctx context.Context, orderID, actor string, deleted bool, note string) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDeliveryOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if d.Deleted == deleted {
			return nil
		}
		if err := tx.UpdateDeliveryOrder(ctx, orderID, models.DeliveryUpdate{Deleted: &deleted}); err != nil {
			return err
		}
		return tx.AppendOrderHistory(ctx, &models.OrderHistory{
			OrderID:   orderID,
			Status:    d.Status,
			Actor:     actor,
			Note:      note,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.log.LogOrder("DELIVERY", orderID, note+" by "+actor)
	if s.cache != nil {
		s.cache.CacheDel(ctx, "order:"+orderID)
	}
	return nil
}

// EditDeliveryOrder records a modification note and flags the order as
// edited so clients can surface the change.
func (s *OrderService) EditDeliveryOrder(ctx context.Context, orderID, modifications, actor string) error {
	edited := true
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		d, err := tx.GetDeliveryOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if d.Deleted {
			return ErrOrderDeleted
		}
		if err := tx.UpdateDeliveryOrder(ctx, orderID, models.DeliveryUpdate{Edited: &edited, Modifications: &modifications}); err != nil {
			return err
		}
		return tx.AppendOrderHistory(ctx, &models.OrderHistory{
			OrderID:   orderID,
			Status:    d.Status,
			Actor:     actor,
			Note:      "order edited: " + modifications,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return err
	}

	s.log.LogOrder("DELIVERY", orderID, "Order edited by "+actor)
	if s.cache != nil {
		s.cache.CacheDel(ctx, "order:"+orderID)
	}
	return nil
}

// OrderHistory returns the append-only audit trail for a delivery order.
func (s *OrderService) OrderHistory(ctx context.Context, orderID string) ([]*models.OrderHistory, error) {
	return s.store.ListOrderHistory(ctx, orderID)
}
