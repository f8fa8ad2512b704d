package presence

import (
	"sync"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// Tracker keeps the last reported location per courier in process. Entries
// older than the TTL are treated as stale so a courier whose app died does
// not look live forever.
type Tracker struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	point models.GeoPoint
	seen  time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Update records a courier heartbeat with their current location.
func (t *Tracker) Update(courierID string, point models.GeoPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[courierID] = entry{point: point, seen: t.now()}
}

// Get returns the courier's last location and whether it is still fresh.
func (t *Tracker) Get(courierID string) (models.GeoPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[courierID]
	if !ok || t.now().Sub(e.seen) > t.ttl {
		return models.GeoPoint{}, false
	}
	return e.point, true
}

// Fresh lists the couriers with a live heartbeat.
func (t *Tracker) Fresh() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cutoff := t.now().Add(-t.ttl)
	var ids []string
	for id, e := range t.entries {
		if e.seen.After(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Forget drops a courier, typically when they sign off.
func (t *Tracker) Forget(courierID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, courierID)
}
