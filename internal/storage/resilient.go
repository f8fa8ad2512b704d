package storage

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// ResilientStore wraps a Store with a circuit breaker so a dead database
// fails fast instead of stacking up blocked requests.
type ResilientStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
}

func NewResilientStore(inner Store, breaker *gobreaker.CircuitBreaker) *ResilientStore {
	return &ResilientStore{inner: inner, breaker: breaker}
}

func (s *ResilientStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	return s.breaker.Execute(fn)
}

func (s *ResilientStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.inner.WithTx(ctx, fn)
	})
	return err
}

func (s *ResilientStore) GetParentOrder(ctx context.Context, id string) (*models.ParentOrder, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.GetParentOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ParentOrder), nil
}

func (s *ResilientStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.GetBooking(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Booking), nil
}

func (s *ResilientStore) GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.GetDeliveryOrder(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DeliveryOrder), nil
}

func (s *ResilientStore) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.GetCourier(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Courier), nil
}

func (s *ResilientStore) CreateCourier(ctx context.Context, c *models.Courier) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.inner.CreateCourier(ctx, c)
	})
	return err
}

func (s *ResilientStore) SetCourierOnline(ctx context.Context, id string, online bool) error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.inner.SetCourierOnline(ctx, id, online)
	})
	return err
}

func (s *ResilientStore) ActiveOrderCount(ctx context.Context, courierID string) (int, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.ActiveOrderCount(ctx, courierID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *ResilientStore) ListOrderHistory(ctx context.Context, orderID string) ([]*models.OrderHistory, error) {
	v, err := s.execute(func() (interface{}, error) {
		return s.inner.ListOrderHistory(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.OrderHistory), nil
}

func (s *ResilientStore) HealthCheck() error {
	_, err := s.execute(func() (interface{}, error) {
		return nil, s.inner.HealthCheck()
	})
	return err
}

func (s *ResilientStore) Close() error {
	return s.inner.Close()
}
