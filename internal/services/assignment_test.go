package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
)

func seedOrder(rig *testRig, id string) {
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        id,
		Status:    models.DeliveryPending,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})
}

func seedAssignedOrder(rig *testRig, id, courierID string) {
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        id,
		CourierID: &courierID,
		Status:    models.DeliveryAssigned,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})
}

func TestAutoAssignPrefersLeastLoadedOnlineCourier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "busy", Name: "Busy", Online: true}))
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "idle", Name: "Idle", Online: true}))
	seedAssignedOrder(rig, "w1", "busy")
	seedAssignedOrder(rig, "w2", "busy")
	seedOrder(rig, "target")

	courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
	require.NoError(t, err)
	require.NotNil(t, courier)
	assert.Equal(t, "idle", courier.ID)

	d, _ := rig.store.GetDeliveryOrder(ctx, "target")
	assert.Equal(t, models.DeliveryAssigned, d.Status)
	require.NotNil(t, d.CourierID)
	assert.Equal(t, "idle", *d.CourierID)

	// The audit trail records the automatic pick.
	history, err := rig.store.ListOrderHistory(ctx, "target")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Note, "auto-assigned")
}

func TestAutoAssignTieBreaksRandomlyAmongLeastLoaded(t *testing.T) {
	wins := make(map[string]int)
	for i := 0; i < 60; i++ {
		rig := newTestRig()
		ctx := context.Background()
		for _, id := range []string{"a", "b", "loaded"} {
			require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: id, Name: id, Online: true}))
		}
		seedAssignedOrder(rig, "w1", "loaded")
		seedOrder(rig, "target")

		courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
		require.NoError(t, err)
		require.NotNil(t, courier)
		wins[courier.ID]++
	}

	// a and b are tied at zero workload; each must win some of the time and
	// the loaded courier never.
	assert.Zero(t, wins["loaded"])
	assert.Positive(t, wins["a"])
	assert.Positive(t, wins["b"])
}

func TestAutoAssignSkipsCouriersAtCapacity(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "full", Name: "Full", Online: true, Capacity: intptr(1)}))
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "free", Name: "Free", Online: true, Capacity: intptr(5)}))
	seedAssignedOrder(rig, "w1", "full")
	seedOrder(rig, "target")

	courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
	require.NoError(t, err)
	require.NotNil(t, courier)
	assert.Equal(t, "free", courier.ID)
}

func TestAutoAssignFallsBackToOnlineOverCapacity(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	// Single online courier, already at capacity. Tier B takes them anyway.
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "only", Name: "Only", Online: true, Capacity: intptr(1)}))
	seedAssignedOrder(rig, "w1", "only")
	seedOrder(rig, "target")

	courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
	require.NoError(t, err)
	require.NotNil(t, courier)
	assert.Equal(t, "only", courier.ID)
}

func TestAutoAssignFallsBackToOfflineCourier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "offline", Name: "Off", Online: false}))
	seedOrder(rig, "target")

	courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
	require.NoError(t, err)
	require.NotNil(t, courier)
	assert.Equal(t, "offline", courier.ID)
}

func TestAutoAssignNoCouriersReturnsNil(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	seedOrder(rig, "target")

	courier, err := rig.svc.AutoAssign(ctx, "target", "admin", "")
	require.NoError(t, err)
	assert.Nil(t, courier)

	// Order untouched.
	d, _ := rig.store.GetDeliveryOrder(ctx, "target")
	assert.Equal(t, models.DeliveryPending, d.Status)
	assert.Nil(t, d.CourierID)
}

func TestAutoAssignManualOrderKeepsItsCourier(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "keep", Name: "Keep", Online: true}))
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "other", Name: "Other", Online: true}))
	kept := "keep"
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "manual1",
		CourierID: &kept,
		Status:    models.DeliveryAssigned,
		Source:    models.OrderTypeManual,
		OrderType: models.OrderTypeManual,
	})

	courier, err := rig.svc.AutoAssign(ctx, "manual1", "admin", models.DeliveryReadyForPickup)
	require.NoError(t, err)
	assert.Nil(t, courier)

	d, _ := rig.store.GetDeliveryOrder(ctx, "manual1")
	require.NotNil(t, d.CourierID)
	assert.Equal(t, "keep", *d.CourierID)
	// Status still moved.
	assert.Equal(t, models.DeliveryReadyForPickup, d.Status)
}

func TestAutoAssignDeletedOrderRejected(t *testing.T) {
	rig := newTestRig()
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID:        "gone",
		Status:    models.DeliveryPending,
		Deleted:   true,
		Source:    models.OrderTypeApp,
		OrderType: models.OrderTypeApp,
	})

	_, err := rig.svc.AutoAssign(context.Background(), "gone", "admin", "")
	assert.ErrorIs(t, err, services.ErrOrderDeleted)
}

func TestAutoAssignWorkloadExcludesDeletedAndTerminal(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "a", Name: "A", Online: true}))
	require.NoError(t, rig.svc.RegisterCourier(ctx, &models.Courier{ID: "b", Name: "B", Online: true}))

	// Courier a's old work is finished or deleted, so both are tied at zero
	// and either may win; the loser's live order would otherwise force the
	// pick.
	done := "a"
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID: "old1", CourierID: &done, Status: models.DeliveryDelivered,
		Source: models.OrderTypeApp, OrderType: models.OrderTypeApp,
	})
	rig.store.SeedDeliveryOrder(&models.DeliveryOrder{
		ID: "old2", CourierID: &done, Status: models.DeliveryAssigned, Deleted: true,
		Source: models.OrderTypeApp, OrderType: models.OrderTypeApp,
	})

	count, err := rig.store.ActiveOrderCount(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, count)
}
