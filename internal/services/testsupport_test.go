package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/config"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/redis"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

// fakeLock mimics the Redis idempotency protocol in memory.
type fakeLock struct {
	mu       sync.Mutex
	inflight map[string]bool
	results  map[string][]byte
	fail     bool
}

func newFakeLock() *fakeLock {
	return &fakeLock{
		inflight: make(map[string]bool),
		results:  make(map[string][]byte),
	}
}

func (l *fakeLock) Acquire(ctx context.Context, key string, ttl time.Duration) (redis.AcquireState, []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return 0, nil, context.DeadlineExceeded
	}
	if data, ok := l.results[key]; ok {
		return redis.StateReplayed, data, nil
	}
	if l.inflight[key] {
		return redis.StateInFlight, nil, nil
	}
	l.inflight[key] = true
	return redis.StateAcquired, nil, nil
}

func (l *fakeLock) StoreResult(ctx context.Context, key string, result []byte, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, key)
	l.results[key] = result
	return nil
}

func (l *fakeLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inflight, key)
	return nil
}

// fakePublisher records every event it is handed.
type fakePublisher struct {
	mu     sync.Mutex
	events []*models.OrderEvent
}

func (p *fakePublisher) PublishOrderEvent(event *models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) byType(eventType string) []*models.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*models.OrderEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testConfig() config.OrdersConfig {
	return config.OrdersConfig{
		DefaultCourierCapacity: 5,
		DefaultDeliveryFee:     20,
		ProcessingTTL:          30 * time.Second,
		ResultTTL:              24 * time.Hour,
		CacheTTL:               30 * time.Second,
		PresenceTTL:            2 * time.Minute,
	}
}

type testRig struct {
	store  *storage.InMemoryStore
	lock   *fakeLock
	events *fakePublisher
	svc    *services.OrderService
}

func newTestRig() *testRig {
	store := storage.NewInMemoryStore()
	lock := newFakeLock()
	events := &fakePublisher{}
	svc := services.NewOrderService(store, lock, nil, events, logger.NewLogger(), testConfig())
	return &testRig{store: store, lock: lock, events: events, svc: svc}
}

func strptr(s string) *string { return &s }

func intptr(n int) *int { return &n }

func twoProviderCart() []models.CartItem {
	return []models.CartItem{
		{ProviderID: "p1", ProviderName: "Bakery", Name: "bread", Price: 50, Quantity: 2},
		{ProviderID: "p2", ProviderName: "Florist", Name: "roses", Price: 30, Quantity: 1},
	}
}

func validAddress() models.Address {
	return models.Address{Street: "9 Tahrir St", City: "Cairo", Phone: "0100000000"}
}
