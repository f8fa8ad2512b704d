package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// nowFunc is swapped out by tests that need deterministic timestamps.
var nowFunc = time.Now

// InMemoryStore keeps everything in maps. It is used by tests and by local
// development without a MySQL instance. Transactions are serialized with one
// mutex and roll back by restoring a snapshot taken at Begin.
type InMemoryStore struct {
	mu       sync.Mutex
	parents  map[string]*models.ParentOrder
	bookings map[string]*models.Booking
	orders   map[string]*models.DeliveryOrder
	prizes   map[string]*models.UserPrize
	couriers map[string]*models.Courier
	history  []*models.OrderHistory
	histSeq  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		parents:  make(map[string]*models.ParentOrder),
		bookings: make(map[string]*models.Booking),
		orders:   make(map[string]*models.DeliveryOrder),
		prizes:   make(map[string]*models.UserPrize),
		couriers: make(map[string]*models.Courier),
	}
}

func (s *InMemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	parents  map[string]*models.ParentOrder
	bookings map[string]*models.Booking
	orders   map[string]*models.DeliveryOrder
	prizes   map[string]*models.UserPrize
	couriers map[string]*models.Courier
	history  []*models.OrderHistory
	histSeq  int64
}

func (s *InMemoryStore) snapshot() *memSnapshot {
	snap := &memSnapshot{
		parents:  make(map[string]*models.ParentOrder, len(s.parents)),
		bookings: make(map[string]*models.Booking, len(s.bookings)),
		orders:   make(map[string]*models.DeliveryOrder, len(s.orders)),
		prizes:   make(map[string]*models.UserPrize, len(s.prizes)),
		couriers: make(map[string]*models.Courier, len(s.couriers)),
		history:  append([]*models.OrderHistory(nil), s.history...),
		histSeq:  s.histSeq,
	}
	for k, v := range s.parents {
		snap.parents[k] = copyParentOrder(v)
	}
	for k, v := range s.bookings {
		snap.bookings[k] = copyBooking(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = copyDeliveryOrder(v)
	}
	for k, v := range s.prizes {
		snap.prizes[k] = copyUserPrize(v)
	}
	for k, v := range s.couriers {
		snap.couriers[k] = copyCourier(v)
	}
	return snap
}

func (s *InMemoryStore) restore(snap *memSnapshot) {
	s.parents = snap.parents
	s.bookings = snap.bookings
	s.orders = snap.orders
	s.prizes = snap.prizes
	s.couriers = snap.couriers
	s.history = snap.history
	s.histSeq = snap.histSeq
}

func (s *InMemoryStore) GetParentOrder(ctx context.Context, id string) (*models.ParentOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.parents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParentOrder(o), nil
}

func (s *InMemoryStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBooking(b), nil
}

func (s *InMemoryStore) GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDeliveryOrder(d), nil
}

func (s *InMemoryStore) GetCourier(ctx context.Context, id string) (*models.Courier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.couriers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCourier(c), nil
}

func (s *InMemoryStore) CreateCourier(ctx context.Context, c *models.Courier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[c.ID] = copyCourier(c)
	return nil
}

func (s *InMemoryStore) SetCourierOnline(ctx context.Context, id string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.couriers[id]
	if !ok {
		return ErrNotFound
	}
	c.Online = online
	return nil
}

func (s *InMemoryStore) ActiveOrderCount(ctx context.Context, courierID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(courierID), nil
}

func (s *InMemoryStore) activeCountLocked(courierID string) int {
	n := 0
	for _, d := range s.orders {
		if d.Deleted || d.CourierID == nil || *d.CourierID != courierID {
			continue
		}
		if d.Status == models.DeliveryDelivered || d.Status == models.DeliveryCancelled {
			continue
		}
		n++
	}
	return n
}

func (s *InMemoryStore) ListOrderHistory(ctx context.Context, orderID string) ([]*models.OrderHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.OrderHistory
	for _, e := range s.history {
		if e.OrderID == orderID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) HealthCheck() error { return nil }

func (s *InMemoryStore) Close() error { return nil }

// SeedPrize installs a prize directly, bypassing transactions. Test helper.
func (s *InMemoryStore) SeedPrize(p *models.UserPrize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prizes[p.ID] = copyUserPrize(p)
}

// SeedDeliveryOrder installs a delivery order directly. Test helper.
func (s *InMemoryStore) SeedDeliveryOrder(d *models.DeliveryOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[d.ID] = copyDeliveryOrder(d)
}

// SeedBooking installs a booking directly. Test helper.
func (s *InMemoryStore) SeedBooking(b *models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = copyBooking(b)
}

// SeedParentOrder installs a parent order directly. Test helper.
func (s *InMemoryStore) SeedParentOrder(o *models.ParentOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[o.ID] = copyParentOrder(o)
}

// memTx mutates the store maps in place. The caller holds the store mutex
// for the whole transaction, and WithTx restores the snapshot on error.
type memTx struct {
	store *InMemoryStore
}

func (t *memTx) CreateParentOrder(ctx context.Context, o *models.ParentOrder) error {
	t.store.parents[o.ID] = copyParentOrder(o)
	return nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *models.Booking) error {
	t.store.bookings[b.ID] = copyBooking(b)
	return nil
}

func (t *memTx) CreateDeliveryOrder(ctx context.Context, d *models.DeliveryOrder) error {
	t.store.orders[d.ID] = copyDeliveryOrder(d)
	return nil
}

func (t *memTx) GetParentOrderForUpdate(ctx context.Context, id string) (*models.ParentOrder, error) {
	o, ok := t.store.parents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyParentOrder(o), nil
}

func (t *memTx) UpdateParentOrderStatus(ctx context.Context, id, status string) error {
	o, ok := t.store.parents[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	b, ok := t.store.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBooking(b), nil
}

func (t *memTx) UpdateBooking(ctx context.Context, id string, upd models.BookingUpdate) error {
	b, ok := t.store.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Status != nil {
		b.Status = *upd.Status
	}
	if upd.Price != nil {
		b.Price = *upd.Price
	}
	if upd.DeliveryOrderID != nil {
		b.DeliveryOrderID = upd.DeliveryOrderID
	}
	if upd.AppointmentDate != nil {
		b.AppointmentDate = upd.AppointmentDate
	}
	if upd.UpdatedBy != nil {
		b.UpdatedBy = *upd.UpdatedBy
	}
	return nil
}

func (t *memTx) BookingFulfillments(ctx context.Context, parentID string) ([]models.BookingFulfillment, error) {
	ids := make([]string, 0)
	for id, b := range t.store.bookings {
		if b.ParentOrderID != nil && *b.ParentOrderID == parentID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]models.BookingFulfillment, 0, len(ids))
	for _, id := range ids {
		b := t.store.bookings[id]
		f := models.BookingFulfillment{BookingID: b.ID, Status: b.Status}
		if b.DeliveryOrderID != nil {
			if d, ok := t.store.orders[*b.DeliveryOrderID]; ok && !d.Deleted {
				status := d.Status
				f.DeliveryStatus = &status
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (t *memTx) GetDeliveryOrderForUpdate(ctx context.Context, id string) (*models.DeliveryOrder, error) {
	d, ok := t.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDeliveryOrder(d), nil
}

func (t *memTx) UpdateDeliveryOrder(ctx context.Context, id string, upd models.DeliveryUpdate) error {
	d, ok := t.store.orders[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Status != nil {
		d.Status = *upd.Status
	}
	if upd.CourierID != nil {
		d.CourierID = upd.CourierID
	}
	if upd.Deleted != nil {
		d.Deleted = *upd.Deleted
	}
	if upd.Edited != nil {
		d.Edited = *upd.Edited
	}
	if upd.Modifications != nil {
		d.Modifications = *upd.Modifications
	}
	return nil
}

func (t *memTx) GetUserPrizeForUpdate(ctx context.Context, id string) (*models.UserPrize, error) {
	p, ok := t.store.prizes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUserPrize(p), nil
}

func (t *memTx) MarkPrizeUsed(ctx context.Context, prizeID, bookingID string) error {
	p, ok := t.store.prizes[prizeID]
	if !ok || p.IsUsed {
		return ErrNotFound
	}
	now := nowFunc()
	p.IsUsed = true
	p.UsedAt = &now
	id := bookingID
	p.BookingID = &id
	return nil
}

func (t *memTx) AppendOrderHistory(ctx context.Context, e *models.OrderHistory) error {
	t.store.histSeq++
	cp := *e
	cp.ID = t.store.histSeq
	t.store.history = append(t.store.history, &cp)
	return nil
}

func (t *memTx) ListCouriers(ctx context.Context) ([]*models.Courier, error) {
	ids := make([]string, 0, len(t.store.couriers))
	for id := range t.store.couriers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*models.Courier, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyCourier(t.store.couriers[id]))
	}
	return out, nil
}

func (t *memTx) ActiveOrderCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, d := range t.store.orders {
		if d.Deleted || d.CourierID == nil {
			continue
		}
		if d.Status == models.DeliveryDelivered || d.Status == models.DeliveryCancelled {
			continue
		}
		counts[*d.CourierID]++
	}
	return counts, nil
}

func (t *memTx) AssignCourier(ctx context.Context, orderID, courierID, status string) error {
	d, ok := t.store.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	id := courierID
	d.CourierID = &id
	d.Status = status
	return nil
}

func copyParentOrder(o *models.ParentOrder) *models.ParentOrder {
	cp := *o
	if o.PrizeID != nil {
		v := *o.PrizeID
		cp.PrizeID = &v
	}
	return &cp
}

func copyBooking(b *models.Booking) *models.Booking {
	cp := *b
	if b.ParentOrderID != nil {
		v := *b.ParentOrderID
		cp.ParentOrderID = &v
	}
	if b.DeliveryOrderID != nil {
		v := *b.DeliveryOrderID
		cp.DeliveryOrderID = &v
	}
	if b.AppointmentDate != nil {
		v := *b.AppointmentDate
		cp.AppointmentDate = &v
	}
	cp.Items = append([]models.BookingItem(nil), b.Items...)
	return &cp
}

func copyDeliveryOrder(d *models.DeliveryOrder) *models.DeliveryOrder {
	cp := *d
	if d.CourierID != nil {
		v := *d.CourierID
		cp.CourierID = &v
	}
	if d.BookingID != nil {
		v := *d.BookingID
		cp.BookingID = &v
	}
	cp.Items = append([]models.BookingItem(nil), d.Items...)
	return &cp
}

func copyUserPrize(p *models.UserPrize) *models.UserPrize {
	cp := *p
	if p.ProviderID != nil {
		v := *p.ProviderID
		cp.ProviderID = &v
	}
	if p.UsedAt != nil {
		v := *p.UsedAt
		cp.UsedAt = &v
	}
	if p.BookingID != nil {
		v := *p.BookingID
		cp.BookingID = &v
	}
	return &cp
}

func copyCourier(c *models.Courier) *models.Courier {
	cp := *c
	if c.Capacity != nil {
		v := *c.Capacity
		cp.Capacity = &v
	}
	return &cp
}
