package services

import (
	"context"
	"fmt"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// RegisterCourier adds a courier to the assignment pool. Capacity nil means
// the configured default applies.
func (s *OrderService) RegisterCourier(ctx context.Context, c *models.Courier) error {
	if err := s.store.CreateCourier(ctx, c); err != nil {
		return err
	}
	s.log.Info("COURIER", "Courier "+c.ID+" registered")
	return nil
}

// SetCourierAvailability flips a courier's online flag. Offline couriers are
// only reached by tier C assignment. Going offline is refused while the
// courier still carries active orders.
func (s *OrderService) SetCourierAvailability(ctx context.Context, courierID string, online bool) error {
	if !online {
		active, err := s.store.ActiveOrderCount(ctx, courierID)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d in flight", ErrCourierBusy, active)
		}
	}
	if err := s.store.SetCourierOnline(ctx, courierID, online); err != nil {
		return err
	}
	state := "offline"
	if online {
		state = "online"
	}
	s.log.Info("COURIER", "Courier "+courierID+" is now "+state)
	return nil
}

// CourierWorkload reports how many live orders a courier is carrying.
func (s *OrderService) CourierWorkload(ctx context.Context, courierID string) (int, error) {
	if _, err := s.store.GetCourier(ctx, courierID); err != nil {
		return 0, err
	}
	return s.store.ActiveOrderCount(ctx, courierID)
}
