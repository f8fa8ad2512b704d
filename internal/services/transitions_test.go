package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
)

// checkoutOneProvider sets up a committed checkout with a single booking and
// returns its ids.
func checkoutOneProvider(t *testing.T, rig *testRig) (parentID, bookingID, deliveryID string) {
	t.Helper()
	result, err := rig.svc.Checkout(context.Background(), &models.CheckoutRequest{
		UserID: "u1",
		Items: []models.CartItem{
			{ProviderID: "p1", ProviderName: "Bakery", Name: "bread", Price: 50, Quantity: 1},
		},
		Address: validAddress(),
	})
	require.NoError(t, err)
	b, err := rig.store.GetBooking(context.Background(), result.BookingIDs[0])
	require.NoError(t, err)
	require.NotNil(t, b.DeliveryOrderID)
	return result.ParentID, b.ID, *b.DeliveryOrderID
}

func TestUpdateBookingStatusHappyPath(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	parentID, bookingID, deliveryID := checkoutOneProvider(t, rig)

	b, err := rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed, nil, "provider-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, "provider-1", b.UpdatedBy)

	// Parent follows once its only booking is confirmed.
	parent, err := rig.store.GetParentOrder(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, parent.Status)

	// Delivery leg stays pending; confirmed maps to pending.
	d, err := rig.store.GetDeliveryOrder(ctx, deliveryID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, d.Status)

	assert.NotEmpty(t, rig.events.byType(models.EventBookingStatusChanged))
}

func TestUpdateBookingStatusPriceSideEffect(t *testing.T) {
	rig := newTestRig()
	_, bookingID, _ := checkoutOneProvider(t, rig)

	price := 75.0
	b, err := rig.svc.UpdateBookingStatus(context.Background(), bookingID, models.BookingConfirmed, &price, "provider-1")
	require.NoError(t, err)
	assert.Equal(t, 75.0, b.Price)

	stored, _ := rig.store.GetBooking(context.Background(), bookingID)
	assert.Equal(t, 75.0, stored.Price)
}

func TestUpdateBookingStatusIllegalTransition(t *testing.T) {
	rig := newTestRig()
	_, bookingID, _ := checkoutOneProvider(t, rig)

	_, err := rig.svc.UpdateBookingStatus(context.Background(), bookingID, models.BookingCompleted, nil, "provider-1")
	require.ErrorIs(t, err, services.ErrIllegalTransition)
	// The message names source and target.
	assert.Contains(t, err.Error(), "pending -> completed")

	stored, _ := rig.store.GetBooking(context.Background(), bookingID)
	assert.Equal(t, models.BookingPending, stored.Status)
}

func TestRejectRefusedWhenDeliveryLinked(t *testing.T) {
	rig := newTestRig()
	_, bookingID, _ := checkoutOneProvider(t, rig)

	_, err := rig.svc.UpdateBookingStatus(context.Background(), bookingID, models.BookingRejected, nil, "provider-1")
	assert.ErrorIs(t, err, services.ErrManualOrderProtected)
}

func TestRejectRefusedForManualBooking(t *testing.T) {
	rig := newTestRig()
	rig.store.SeedBooking(&models.Booking{
		ID:         "bm",
		CustomerID: "u1",
		ProviderID: "p1",
		Status:     models.BookingPending,
		Manual:     true,
	})

	_, err := rig.svc.UpdateBookingStatus(context.Background(), "bm", models.BookingRejected, nil, "provider-1")
	assert.ErrorIs(t, err, services.ErrManualOrderProtected)
}

func TestCompletedAssignsCourierAndReadiesDelivery(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "c1", Name: "Ali", Online: true}))

	_, bookingID, deliveryID := checkoutOneProvider(t, rig)
	_, err := rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed, nil, "provider-1")
	require.NoError(t, err)

	_, err = rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingCompleted, nil, "provider-1")
	require.NoError(t, err)

	d, err := rig.store.GetDeliveryOrder(ctx, deliveryID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryReadyForPickup, d.Status)
	require.NotNil(t, d.CourierID)
	assert.Equal(t, "c1", *d.CourierID)

	assert.NotEmpty(t, rig.events.byType(models.EventCourierAssigned))
}

func TestCompletedWithoutCouriersStillReadiesDelivery(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	_, bookingID, deliveryID := checkoutOneProvider(t, rig)

	_, err := rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed, nil, "provider-1")
	require.NoError(t, err)
	_, err = rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingCompleted, nil, "provider-1")
	require.NoError(t, err)

	d, err := rig.store.GetDeliveryOrder(ctx, deliveryID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryReadyForPickup, d.Status)
	assert.Nil(t, d.CourierID)
}

func TestParentHoldsAtReadyUntilDeliveryCompletes(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	parentID, bookingID, deliveryID := checkoutOneProvider(t, rig)

	_, err := rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingConfirmed, nil, "provider-1")
	require.NoError(t, err)
	_, err = rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingCompleted, nil, "provider-1")
	require.NoError(t, err)

	// The provider finishing only means the goods are ready; the parent must
	// not read delivered while nothing has been picked up.
	parent, err := rig.store.GetParentOrder(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryReadyForPickup, parent.Status)
	assert.Len(t, rig.events.byType(models.EventParentReady), 1)

	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryPickedUp, "c1", "", nil))
	parent, _ = rig.store.GetParentOrder(ctx, parentID)
	assert.Equal(t, models.DeliveryPickedUp, parent.Status)

	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryInTransit, "c1", "", nil))
	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, deliveryID, models.DeliveryDelivered, "c1", "", nil))
	parent, _ = rig.store.GetParentOrder(ctx, parentID)
	assert.Equal(t, models.DeliveryDelivered, parent.Status)
}

func TestCancelledBookingCancelsDelivery(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	_, bookingID, deliveryID := checkoutOneProvider(t, rig)

	_, err := rig.svc.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled, nil, "customer")
	require.NoError(t, err)

	d, err := rig.store.GetDeliveryOrder(ctx, deliveryID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryCancelled, d.Status)
}

func TestRescheduleAndConfirmAppointment(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.store.SeedBooking(&models.Booking{
		ID:         "ba",
		CustomerID: "u1",
		ProviderID: "p1",
		Status:     models.BookingPendingAppointment,
	})

	newDate := time.Now().Add(48 * time.Hour)
	b, err := rig.svc.RescheduleAppointment(ctx, "ba", newDate, "provider")
	require.NoError(t, err)
	assert.Equal(t, models.BookingProviderRescheduled, b.Status)
	require.NotNil(t, b.AppointmentDate)

	b, err = rig.svc.ConfirmAppointment(ctx, "ba", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
}

func TestRescheduleByCustomer(t *testing.T) {
	rig := newTestRig()
	rig.store.SeedBooking(&models.Booking{
		ID:         "bc",
		CustomerID: "u1",
		ProviderID: "p1",
		Status:     models.BookingPendingAppointment,
	})

	b, err := rig.svc.RescheduleAppointment(context.Background(), "bc", time.Now().Add(time.Hour), "customer")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCustomerRescheduled, b.Status)
}

func TestConfirmAppointmentRequiresDate(t *testing.T) {
	rig := newTestRig()
	rig.store.SeedBooking(&models.Booking{
		ID:         "bd",
		CustomerID: "u1",
		ProviderID: "p1",
		Status:     models.BookingPendingAppointment,
	})

	_, err := rig.svc.ConfirmAppointment(context.Background(), "bd", "u1")
	assert.ErrorIs(t, err, services.ErrAppointmentRequired)
}
