package services

import (
	"context"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

// SyncParentStatus recomputes the parent order status from a locked snapshot
// of its bookings. It is the aggregation gatekeeper: the parent only advances
// to a fulfillment level once every active booking has reached it, so one
// lagging provider holds the whole order back.
//
// The recomputation is idempotent and never reports an error to the caller;
// it always runs as a side effect of an operation whose primary write has
// already committed.
func (s *OrderService) SyncParentStatus(ctx context.Context, parentID string) {
	var (
		customerID string
		oldStatus  string
		newStatus  string
	)

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		parent, err := tx.GetParentOrderForUpdate(ctx, parentID)
		if err != nil {
			return err
		}
		customerID = parent.UserID
		oldStatus = parent.Status
		newStatus = parent.Status

		members, err := tx.BookingFulfillments(ctx, parentID)
		if err != nil {
			return err
		}

		active := members[:0]
		for _, m := range members {
			if !models.IsInactiveStatus(m.Status) {
				active = append(active, m)
			}
		}
		// A fully cancelled parent never auto-transitions.
		if len(active) == 0 {
			return nil
		}

		minLevel := models.LevelDelivered
		for _, m := range active {
			if lvl := m.Level(); lvl < minLevel {
				minLevel = lvl
			}
		}

		computed := models.ParentStatusForLevel(minLevel)
		if computed == parent.Status {
			return nil
		}
		if err := tx.UpdateParentOrderStatus(ctx, parentID, computed); err != nil {
			return err
		}
		newStatus = computed
		return nil
	})
	if err != nil {
		s.log.Error("PARENT_SYNC", "Failed to sync parent "+parentID+": "+err.Error())
		return
	}
	if newStatus == oldStatus {
		return
	}

	s.log.LogOrder("PARENT_SYNC", parentID, "Parent status "+oldStatus+" -> "+newStatus)
	if s.cache != nil {
		s.cache.CacheDel(ctx, "parent:"+parentID)
	}

	s.publish(&models.OrderEvent{
		Type:          models.EventParentStatusChanged,
		ParentOrderID: parentID,
		CustomerID:    customerID,
		Status:        newStatus,
		Timestamp:     time.Now(),
	})

	if newStatus == models.DeliveryReadyForPickup {
		s.publish(&models.OrderEvent{
			Type:          models.EventParentReady,
			ParentOrderID: parentID,
			CustomerID:    customerID,
			Status:        newStatus,
			Note:          "your full order is ready",
			Timestamp:     time.Now(),
		})
	}
}
