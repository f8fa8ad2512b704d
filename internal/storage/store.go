package storage

import (
	"context"
	"errors"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// ErrNotFound is returned by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the ledger. It is the single source of truth and the only
// component allowed to mutate entity state. Mutations run inside WithTx;
// reads outside a transaction see committed state only.
type Store interface {
	// WithTx runs fn inside one ledger transaction. A non-nil error from fn
	// rolls everything back and is returned unchanged.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetParentOrder(ctx context.Context, id string) (*models.ParentOrder, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetDeliveryOrder(ctx context.Context, id string) (*models.DeliveryOrder, error)
	GetCourier(ctx context.Context, id string) (*models.Courier, error)
	CreateCourier(ctx context.Context, courier *models.Courier) error
	SetCourierOnline(ctx context.Context, id string, online bool) error
	ActiveOrderCount(ctx context.Context, courierID string) (int, error)
	ListOrderHistory(ctx context.Context, orderID string) ([]*models.OrderHistory, error)

	HealthCheck() error
	Close() error
}

// Tx is the transactional surface. ForUpdate getters take a row lock that is
// held until the surrounding transaction commits or rolls back; they are the
// backbone of the concurrency model.
type Tx interface {
	CreateParentOrder(ctx context.Context, order *models.ParentOrder) error
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateDeliveryOrder(ctx context.Context, order *models.DeliveryOrder) error

	GetParentOrderForUpdate(ctx context.Context, id string) (*models.ParentOrder, error)
	UpdateParentOrderStatus(ctx context.Context, id, status string) error

	GetBookingForUpdate(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, upd models.BookingUpdate) error
	BookingFulfillments(ctx context.Context, parentID string) ([]models.BookingFulfillment, error)

	GetDeliveryOrderForUpdate(ctx context.Context, id string) (*models.DeliveryOrder, error)
	UpdateDeliveryOrder(ctx context.Context, id string, upd models.DeliveryUpdate) error

	GetUserPrizeForUpdate(ctx context.Context, id string) (*models.UserPrize, error)
	MarkPrizeUsed(ctx context.Context, prizeID, bookingID string) error

	AppendOrderHistory(ctx context.Context, entry *models.OrderHistory) error

	ListCouriers(ctx context.Context) ([]*models.Courier, error)
	ActiveOrderCounts(ctx context.Context) (map[string]int, error)
	AssignCourier(ctx context.Context, orderID, courierID, status string) error
}
