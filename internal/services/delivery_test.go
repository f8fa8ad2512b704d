package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
)

func TestUpdateDeliveryStatusLifecycle(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	courier := "c1"
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "d1",
		CourierID: &courier,
		Status:    models.DeliveryReadyForPickup,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})

	geo := &models.GeoPoint{Lat: 30.04, Lng: 31.23}
	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, "d1", models.DeliveryPickedUp, "c1", "picked up from bakery", geo))
	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, "d1", models.DeliveryInTransit, "c1", "", nil))
	require.NoError(t, rig.svc.UpdateDeliveryStatus(ctx, "d1", models.DeliveryDelivered, "c1", "", nil))

	d, _ := rig.store.GetDeliveryOrder(ctx, "d1")
	assert.Equal(t, models.DeliveryDelivered, d.Status)

	history, err := rig.store.ListOrderHistory(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.DeliveryPickedUp, history[0].Status)
	require.NotNil(t, history[0].Geo)
	assert.Equal(t, 30.04, history[0].Geo.Lat)

	assert.Len(t, rig.events.byType(models.EventDeliveryStatusChanged), 3)
}

func TestUpdateDeliveryStatusIllegalJump(t *testing.T) {
	rig := newTestRig()
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "d2",
		Status:    models.DeliveryPending,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})

	err := rig.svc.UpdateDeliveryStatus(context.Background(), "d2", models.DeliveryDelivered, "c1", "", nil)
	assert.ErrorIs(t, err, services.ErrIllegalTransition)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "d3",
		Status:    models.DeliveryPending,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})

	require.NoError(t, rig.svc.RemoveDeliveryOrder(ctx, "d3", "admin"))

	// Deleted orders refuse status updates.
	err := rig.svc.UpdateDeliveryStatus(ctx, "d3", models.DeliveryAssigned, "c1", "", nil)
	assert.ErrorIs(t, err, services.ErrOrderDeleted)

	require.NoError(t, rig.svc.RestoreDeliveryOrder(ctx, "d3", "admin"))
	d, _ := rig.store.GetDeliveryOrder(ctx, "d3")
	assert.False(t, d.Deleted)

	err = rig.svc.UpdateDeliveryStatus(ctx, "d3", models.DeliveryCancelled, "admin", "", nil)
	assert.NoError(t, err)
}

func TestEditDeliveryOrder(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "d4",
		Status:    models.DeliveryPending,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})

	require.NoError(t, rig.svc.EditDeliveryOrder(ctx, "d4", "swapped roses for tulips", "supervisor-1"))

	d, _ := rig.store.GetDeliveryOrder(ctx, "d4")
	assert.True(t, d.Edited)
	assert.Equal(t, "swapped roses for tulips", d.Modifications)
}

func TestCreateManualOrderWithCourier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "c1", Name: "Ali", Online: true}))

	order, err := rig.svc.CreateManualOrder(ctx, &models.ManualOrderRequest{
		SupervisorID: "sup1",
		CourierID:    strptr("c1"),
		Items:        []models.BookingItem{{Name: "cake", Price: 120, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, order.Manual())
	assert.Equal(t, models.DeliveryAssigned, order.Status)
	assert.Equal(t, 20.0, order.DeliveryFee)
	assert.NotEmpty(t, order.OrderNumber)

	assert.Len(t, rig.events.byType(models.EventCourierAssigned), 1)
}

func TestCreateManualOrderWithoutCourierStaysPending(t *testing.T) {
	rig := newTestRig()

	order, err := rig.svc.CreateManualOrder(context.Background(), &models.ManualOrderRequest{
		SupervisorID: "sup1",
		Items:        []models.BookingItem{{Name: "cake", Price: 120, Quantity: 1}},
		DeliveryFee:  35,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, order.Status)
	assert.Nil(t, order.CourierID)
	assert.Equal(t, 35.0, order.DeliveryFee)
}

func TestCreateManualOrderOfflineCourierRefused(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "c1", Name: "Ali", Online: false}))

	_, err := rig.svc.CreateManualOrder(ctx, &models.ManualOrderRequest{
		SupervisorID: "sup1",
		CourierID:    strptr("c1"),
		Items:        []models.BookingItem{{Name: "cake", Price: 120, Quantity: 1}},
	})
	assert.ErrorIs(t, err, services.ErrCourierOffline)
}

func TestCreateManualOrderUnknownCourier(t *testing.T) {
	rig := newTestRig()

	_, err := rig.svc.CreateManualOrder(context.Background(), &models.ManualOrderRequest{
		SupervisorID: "sup1",
		CourierID:    strptr("nobody"),
		Items:        []models.BookingItem{{Name: "cake", Price: 120, Quantity: 1}},
	})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCourierAvailabilityToggle(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "c1", Name: "Ali", Online: true}))

	require.NoError(t, rig.svc.SetCourierAvailability(ctx, "c1", false))
	c, err := rig.store.GetCourier(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Online)

	assert.ErrorIs(t, rig.svc.SetCourierAvailability(ctx, "ghost", true), services.ErrNotFound)
}

func TestCourierCannotGoOfflineWithActiveOrders(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "c1", Name: "Ali", Online: true}))
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "d1",
		Status:    models.DeliveryInTransit,
		CourierID: strptr("c1"),
	})

	assert.ErrorIs(t, rig.svc.SetCourierAvailability(ctx, "c1", false), services.ErrCourierBusy)

	c, err := rig.store.GetCourier(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Online)
}
