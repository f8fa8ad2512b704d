package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/redis"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

// CheckoutLock is the slice of the Redis client the checkout flow needs.
type CheckoutLock interface {
	Acquire(ctx context.Context, key string, processingTTL time.Duration) (redis.AcquireState, []byte, error)
	StoreResult(ctx context.Context, key string, result []byte, resultTTL time.Duration) error
	Release(ctx context.Context, key string) error
}

// EventPublisher pushes order events to the realtime channel. Failures are
// logged and swallowed; the primary write has already committed.
type EventPublisher interface {
	PublishOrderEvent(event *models.OrderEvent) error
}

// ReadCache is the best-effort lookup cache. Both an outage and a miss
// report !ok.
type ReadCache interface {
	CacheGet(ctx context.Context, key string) ([]byte, bool)
	CacheSet(ctx context.Context, key string, val []byte, ttl time.Duration)
	CacheDel(ctx context.Context, keys ...string)
}

// OrderService owns checkout, booking transitions, parent aggregation,
// courier assignment and the delivery lifecycle.
type OrderService struct {
	store  storage.Store
	lock   CheckoutLock
	cache  ReadCache
	events EventPublisher
	log    *logger.Logger
	cfg    config.OrdersConfig
}

func NewOrderService(store storage.Store, lock CheckoutLock, cache ReadCache, events EventPublisher, log *logger.Logger, cfg config.OrdersConfig) *OrderService {
	return &OrderService{
		store:  store,
		lock:   lock,
		cache:  cache,
		events: events,
		log:    log,
		cfg:    cfg,
	}
}

// Checkout validates the cart, claims the idempotency key, then creates the
// parent order, one booking per provider and one delivery order per booking
// inside a single transaction. Identical retries replay the cached result.
func (s *OrderService) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	claimed := false
	if req.IdempotencyKey != "" {
		state, cached, err := s.acquireIdempotency(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		switch state {
		case redis.StateInFlight:
			return nil, ErrCheckoutInProgress
		case redis.StateReplayed:
			var result models.CheckoutResult
			if err := json.Unmarshal(cached, &result); err != nil {
				// Corrupt cache entry. Refuse rather than double-charge.
				s.log.Error("CHECKOUT", "Cached result for key "+req.IdempotencyKey+" is unreadable: "+err.Error())
				return nil, fmt.Errorf("cached checkout result is unreadable: %w", err)
			}
			s.log.LogOrder("REPLAY", result.ParentID, "Replayed checkout for key "+req.IdempotencyKey)
			return &result, nil
		case redis.StateAcquired:
			claimed = true
		}
	}

	result, err := s.runCheckout(ctx, req)
	if claimed {
		if err != nil {
			if relErr := s.lock.Release(ctx, req.IdempotencyKey); relErr != nil {
				s.log.Warn("CHECKOUT", "Failed to release idempotency key "+req.IdempotencyKey+": "+relErr.Error())
			}
		} else if data, mErr := json.Marshal(result); mErr == nil {
			if stErr := s.lock.StoreResult(ctx, req.IdempotencyKey, data, s.cfg.ResultTTL); stErr != nil {
				s.log.Warn("CHECKOUT", "Failed to store checkout result for key "+req.IdempotencyKey+": "+stErr.Error())
			}
		}
	}
	if err != nil {
		return nil, err
	}

	s.publish(&models.OrderEvent{
		Type:          models.EventCheckoutCompleted,
		ParentOrderID: result.ParentID,
		CustomerID:    req.UserID,
		Status:        models.BookingPending,
		Timestamp:     time.Now(),
	})

	return result, nil
}

func (s *OrderService) acquireIdempotency(ctx context.Context, key string) (redis.AcquireState, []byte, error) {
	if s.lock == nil {
		if s.cfg.IdempotencyFailOpen {
			s.log.Warn("CHECKOUT", "No idempotency lock configured, proceeding without dedup")
			return redis.StateAcquired, nil, nil
		}
		return 0, nil, ErrIdempotencyUnavailable
	}
	state, cached, err := s.lock.Acquire(ctx, key, s.cfg.ProcessingTTL)
	if err != nil {
		if s.cfg.IdempotencyFailOpen {
			s.log.Warn("CHECKOUT", "Idempotency guard unreachable, proceeding without dedup: "+err.Error())
			return redis.StateAcquired, nil, nil
		}
		s.log.Error("CHECKOUT", "Idempotency guard unreachable: "+err.Error())
		return 0, nil, fmt.Errorf("%w: %v", ErrIdempotencyUnavailable, err)
	}
	return state, cached, nil
}

func (s *OrderService) runCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, error) {
	var result *models.CheckoutResult

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		now := time.Now()

		total := 0.0
		for _, item := range req.Items {
			total += item.Price * float64(item.Quantity)
		}

		discount := 0.0
		scopedProvider := ""
		if req.PrizeID != nil {
			prize, err := tx.GetUserPrizeForUpdate(ctx, *req.PrizeID)
			if err != nil {
				if err == storage.ErrNotFound {
					return ErrPrizeNotRedeemable
				}
				return err
			}
			if prize.IsUsed || prize.UserID != req.UserID {
				return ErrPrizeNotRedeemable
			}
			discount, scopedProvider, err = computeDiscount(prize, req.Items, total)
			if err != nil {
				return err
			}
		}

		finalPrice := math.Max(0, round2(total-discount))

		parent := &models.ParentOrder{
			ID:         uuid.NewString(),
			UserID:     req.UserID,
			TotalPrice: total,
			Discount:   discount,
			PrizeID:    req.PrizeID,
			Status:     models.BookingPending,
			Address:    req.Address,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.CreateParentOrder(ctx, parent); err != nil {
			return err
		}

		groups := partitionByProvider(req.Items)
		shares := allocateDiscount(groups, total, discount, scopedProvider)

		bookingIDs := make([]string, 0, len(groups))
		for i, g := range groups {
			bookingID := uuid.NewString()
			deliveryID := uuid.NewString()

			delivery := &models.DeliveryOrder{
				ID:          deliveryID,
				OrderNumber: utils.GenerateOrderNumber(),
				BookingID:   &bookingID,
				Status:      models.DeliveryPending,
				Source:      models.OrderTypeApp,
				OrderType:   models.OrderTypeApp,
				Items:       bookingItems(g.items),
				DeliveryFee: s.cfg.DefaultDeliveryFee,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.CreateDeliveryOrder(ctx, delivery); err != nil {
				return err
			}

			booking := &models.Booking{
				ID:              bookingID,
				CustomerID:      req.UserID,
				ProviderID:      g.providerID,
				ProviderName:    g.providerName,
				ParentOrderID:   &parent.ID,
				DeliveryOrderID: &deliveryID,
				Status:          models.BookingPending,
				Price:           g.subtotal,
				Discount:        shares[i],
				Items:           bookingItems(g.items),
				UpdatedBy:       "customer",
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.CreateBooking(ctx, booking); err != nil {
				return err
			}
			bookingIDs = append(bookingIDs, bookingID)

			if err := tx.AppendOrderHistory(ctx, &models.OrderHistory{
				OrderID:   deliveryID,
				Status:    models.DeliveryPending,
				Actor:     "system",
				Note:      "created by checkout",
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		if req.PrizeID != nil {
			if err := tx.MarkPrizeUsed(ctx, *req.PrizeID, bookingIDs[0]); err != nil {
				if err == storage.ErrNotFound {
					return ErrPrizeNotRedeemable
				}
				return err
			}
		}

		result = &models.CheckoutResult{
			ParentID:   parent.ID,
			BookingIDs: bookingIDs,
			Discount:   discount,
			FinalPrice: finalPrice,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogOrder("CHECKOUT", result.ParentID, fmt.Sprintf("Created %d bookings, discount %.2f, final %.2f",
		len(result.BookingIDs), result.Discount, result.FinalPrice))
	return result, nil
}

func validateCheckout(req *models.CheckoutRequest) error {
	if len(req.Items) == 0 {
		return ErrInvalidCart
	}
	for _, item := range req.Items {
		if item.ProviderID == "" || item.Price < 0 || item.Quantity <= 0 {
			return ErrInvalidCart
		}
	}
	if req.Address.Street == "" || req.Address.City == "" || req.Address.Phone == "" {
		return ErrInvalidAddress
	}
	return nil
}

// computeDiscount applies the prize to the cart. Percentage prizes discount
// the scoped provider's subtotal, or the whole cart when unscoped. Flat
// prizes are capped at the cart total. Free-delivery prizes carry no price
// discount here.
func computeDiscount(prize *models.UserPrize, items []models.CartItem, total float64) (float64, string, error) {
	scoped := ""
	scopedSubtotal := total
	if prize.ProviderID != nil && *prize.ProviderID != "" {
		scoped = *prize.ProviderID
		scopedSubtotal = 0
		for _, item := range items {
			if item.ProviderID == scoped {
				scopedSubtotal += item.Price * float64(item.Quantity)
			}
		}
		if scopedSubtotal == 0 {
			return 0, "", ErrPrizeNotApplicable
		}
	}

	switch prize.PrizeType {
	case models.PrizePercentage:
		return round2(scopedSubtotal * prize.Value / 100), scoped, nil
	case models.PrizeAmount:
		return math.Min(prize.Value, total), scoped, nil
	case models.PrizeFreeDelivery:
		return 0, scoped, nil
	default:
		return 0, "", ErrPrizeNotRedeemable
	}
}

type providerGroup struct {
	providerID   string
	providerName string
	subtotal     float64
	items        []models.CartItem
}

// partitionByProvider groups cart items by provider in first-seen order so
// booking creation order is deterministic.
func partitionByProvider(items []models.CartItem) []providerGroup {
	index := make(map[string]int)
	var groups []providerGroup
	for _, item := range items {
		i, ok := index[item.ProviderID]
		if !ok {
			i = len(groups)
			index[item.ProviderID] = i
			groups = append(groups, providerGroup{
				providerID:   item.ProviderID,
				providerName: item.ProviderName,
			})
		}
		groups[i].subtotal += item.Price * float64(item.Quantity)
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}

// allocateDiscount splits the discount across provider groups. A
// provider-scoped prize lands entirely on that provider's booking; an
// unscoped discount is split proportionally to subtotal, rounded to cents,
// with the rounding remainder folded into the last booking.
func allocateDiscount(groups []providerGroup, total, discount float64, scopedProvider string) []float64 {
	shares := make([]float64, len(groups))
	if discount == 0 || total == 0 {
		return shares
	}

	if scopedProvider != "" {
		for i, g := range groups {
			if g.providerID == scopedProvider {
				shares[i] = discount
				return shares
			}
		}
		return shares
	}

	allocated := 0.0
	for i, g := range groups {
		if i == len(groups)-1 {
			shares[i] = round2(discount - allocated)
			break
		}
		shares[i] = round2(discount * g.subtotal / total)
		allocated += shares[i]
	}
	return shares
}

func bookingItems(items []models.CartItem) []models.BookingItem {
	out := make([]models.BookingItem, len(items))
	for i, item := range items {
		out[i] = models.BookingItem{Name: item.Name, Price: item.Price, Quantity: item.Quantity}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// publish pushes one event, best effort.
func (s *OrderService) publish(event *models.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(event); err != nil {
		s.log.Warn("EVENTS", "Failed to publish "+event.Type+" event: "+err.Error())
	}
}
