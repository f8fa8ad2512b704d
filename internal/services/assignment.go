package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

// AutoAssign picks a courier for a delivery order using tiered fallback:
// online couriers under their capacity balanced by workload first, then any
// online courier, then any courier at all. It returns nil without error when
// no courier exists or the order is a manual order that already has one.
func (s *OrderService) AutoAssign(ctx context.Context, orderID, requestingUserID, targetStatus string) (*models.Courier, error) {
	if targetStatus == "" {
		targetStatus = models.DeliveryAssigned
	}

	var (
		selected  *models.Courier
		workload  int
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
		bookingID = d.BookingID

		// Manual orders keep the courier a human gave them. Only the
		// status moves.
		if d.Manual() && d.CourierID != nil {
			if d.Status != targetStatus {
				return applyDeliveryStatus(ctx, tx, d, targetStatus, requestingUserID, "manual order, courier kept")
			}
			return nil
		}

		couriers, err := tx.ListCouriers(ctx)
		if err != nil {
			return err
		}
		counts, err := tx.ActiveOrderCounts(ctx)
		if err != nil {
			return err
		}

		selected = s.pickCourier(couriers, counts)
		if selected == nil {
			return nil
		}
		workload = counts[selected.ID]

		if err := tx.AssignCourier(ctx, orderID, selected.ID, targetStatus); err != nil {
			return err
		}
		return tx.AppendOrderHistory(ctx, &models.OrderHistory{
			OrderID:   orderID,
			Status:    targetStatus,
			Actor:     "system",
			Note:      fmt.Sprintf("auto-assigned to %s (workload %d)", selected.ID, workload),
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	if selected == nil {
		return nil, nil
	}

	s.log.LogOrder("ASSIGN", orderID, fmt.Sprintf("Courier %s assigned (workload %d), status %s", selected.ID, workload, targetStatus))
	if s.cache != nil {
		s.cache.CacheDel(ctx, "order:"+orderID)
	}

	s.publish(&models.OrderEvent{
		Type:      models.EventCourierAssigned,
		OrderID:   orderID,
		CourierID: selected.ID,
		Status:    targetStatus,
		Actor:     "system",
		Timestamp: time.Now(),
	})
	s.publish(&models.OrderEvent{
		Type:      models.EventDeliveryStatusChanged,
		OrderID:   orderID,
		CourierID: selected.ID,
		Status:    targetStatus,
		Actor:     "system",
		Timestamp: time.Now(),
	})

	if bookingID != nil {
		if b, err := s.store.GetBooking(ctx, *bookingID); err == nil && b.ParentOrderID != nil {
			s.SyncParentStatus(ctx, *b.ParentOrderID)
		}
	}

	return selected, nil
}

// pickCourier walks the tiers. Within tier A the pick is uniform among the
// couriers sharing the minimum workload so no one is starved.
func (s *OrderService) pickCourier(couriers []*models.Courier, counts map[string]int) *models.Courier {
	// Tier A: online and under capacity, minimum workload wins.
	var tierA []*models.Courier
	minLoad := -1
	for _, c := range couriers {
		if !c.Online {
			continue
		}
		capacity := s.cfg.DefaultCourierCapacity
		if c.Capacity != nil {
			capacity = *c.Capacity
		}
		load := counts[c.ID]
		if load >= capacity {
			continue
		}
		switch {
		case minLoad == -1 || load < minLoad:
			minLoad = load
			tierA = tierA[:0]
			tierA = append(tierA, c)
		case load == minLoad:
			tierA = append(tierA, c)
		}
	}
	if len(tierA) > 0 {
		return tierA[rand.Intn(len(tierA))]
	}

	// Tier B: any online courier, capacity ignored.
	var tierB []*models.Courier
	for _, c := range couriers {
		if c.Online {
			tierB = append(tierB, c)
		}
	}
	if len(tierB) > 0 {
		return tierB[rand.Intn(len(tierB))]
	}

	// Tier C: anyone at all.
	if len(couriers) > 0 {
		return couriers[rand.Intn(len(couriers))]
	}
	return nil
}
