package services

import (
	"context"
	"encoding/json"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// Cached read-through lookups for the hot entities. The cache is advisory;
// a Redis outage silently degrades to store reads.

func (s *OrderService) GetParentOrder(ctx context.Context, id string) (*models.ParentOrder, error) {
	var o models.ParentOrder
	if s.cacheRead(ctx, "parent:"+id, &o) {
		return &o, nil
	}
	fresh, err := s.store.GetParentOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheWrite(ctx, "parent:"+id, fresh)
	return fresh, nil
}

func (s *OrderService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if s.cacheRead(ctx, "booking:"+id, &b) {
		return &b, nil
	}
	fresh, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheWrite(ctx, "booking:"+id, fresh)
	return fresh, nil
}

func (s *OrderService) GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	var d models.DeliveryOrder
	if s.cacheRead(ctx, "order:"+id, &d) {
		return &d, nil
	}
	fresh, err := s.store.GetDeliveryOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheWrite(ctx, "order:"+id, fresh)
	return fresh, nil
}

func (s *OrderService) cacheRead(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, ok := s.cache.CacheGet(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.cache.CacheDel(ctx, key)
		return false
	}
	return true
}

func (s *OrderService) cacheWrite(ctx context.Context, key string, val interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	s.cache.CacheSet(ctx, key, data, s.cfg.CacheTTL)
}
