package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/storage"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateParentOrder(ctx, &models.ParentOrder{ID: "p1", UserID: "u1", Status: "pending"}); err != nil {
			return err
		}
		if err := tx.CreateBooking(ctx, &models.Booking{ID: "b1", CustomerID: "u1", ProviderID: "pr1", Status: "pending"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed transaction is visible.
	_, err = store.GetParentOrder(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetBooking(ctx, "b1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWithTxCommitIsVisible(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CreateParentOrder(ctx, &models.ParentOrder{ID: "p2", UserID: "u1", Status: "pending"})
	})
	require.NoError(t, err)

	parent, err := store.GetParentOrder(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "u1", parent.UserID)
}

func TestMarkPrizeUsedIsSingleUse(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()
	store.SeedPrize(&models.UserPrize{ID: "pz1", UserID: "u1", PrizeType: models.PrizeAmount, Value: 5, WonAt: time.Now()})

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.MarkPrizeUsed(ctx, "pz1", "b1")
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.MarkPrizeUsed(ctx, "pz1", "b2")
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The winning booking stays attached.
	err = store.WithTx(ctx, func(tx storage.Tx) error {
		p, err := tx.GetUserPrizeForUpdate(ctx, "pz1")
		if err != nil {
			return err
		}
		assert.True(t, p.IsUsed)
		require.NotNil(t, p.BookingID)
		assert.Equal(t, "b1", *p.BookingID)
		return nil
	})
	require.NoError(t, err)
}

func TestBookingFulfillmentsJoinsDeliveryStatus(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	parentID := "p3"
	deliveryID := "d3"
	store.SeedParentOrder(&models.ParentOrder{ID: parentID, UserID: "u1", Status: "pending"})
	store.SeedDeliveryOrder(&models.DeliveryOrder{ID: deliveryID, Status: models.DeliveryPickedUp, Source: "app", OrderType: "app"})
	store.SeedBooking(&models.Booking{
		ID: "b3", CustomerID: "u1", ProviderID: "pr1",
		ParentOrderID: &parentID, DeliveryOrderID: &deliveryID, Status: models.BookingConfirmed,
	})
	store.SeedBooking(&models.Booking{
		ID: "b4", CustomerID: "u1", ProviderID: "pr2",
		ParentOrderID: &parentID, Status: models.BookingPending,
	})

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		members, err := tx.BookingFulfillments(ctx, parentID)
		if err != nil {
			return err
		}
		require.Len(t, members, 2)
		require.NotNil(t, members[0].DeliveryStatus)
		assert.Equal(t, models.DeliveryPickedUp, *members[0].DeliveryStatus)
		assert.Nil(t, members[1].DeliveryStatus)
		return nil
	})
	require.NoError(t, err)
}

func TestBookingFulfillmentsIgnoresDeletedDelivery(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	parentID := "p4"
	deliveryID := "d4"
	store.SeedParentOrder(&models.ParentOrder{ID: parentID, UserID: "u1", Status: "pending"})
	store.SeedDeliveryOrder(&models.DeliveryOrder{ID: deliveryID, Status: models.DeliveryPickedUp, Deleted: true, Source: "app", OrderType: "app"})
	store.SeedBooking(&models.Booking{
		ID: "b5", CustomerID: "u1", ProviderID: "pr1",
		ParentOrderID: &parentID, DeliveryOrderID: &deliveryID, Status: models.BookingConfirmed,
	})

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		members, err := tx.BookingFulfillments(ctx, parentID)
		if err != nil {
			return err
		}
		require.Len(t, members, 1)
		assert.Nil(t, members[0].DeliveryStatus)
		return nil
	})
	require.NoError(t, err)
}

func TestPartialBookingUpdateLeavesOtherFieldsAlone(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()
	store.SeedBooking(&models.Booking{
		ID: "b6", CustomerID: "u1", ProviderID: "pr1",
		Status: models.BookingPending, Price: 40, UpdatedBy: "customer",
	})

	status := models.BookingConfirmed
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateBooking(ctx, "b6", models.BookingUpdate{Status: &status})
	})
	require.NoError(t, err)

	b, err := store.GetBooking(ctx, "b6")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, 40.0, b.Price)
	assert.Equal(t, "customer", b.UpdatedBy)
}

func TestGetReturnsCopies(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()
	store.SeedBooking(&models.Booking{ID: "b7", CustomerID: "u1", ProviderID: "pr1", Status: models.BookingPending})

	b, err := store.GetBooking(ctx, "b7")
	require.NoError(t, err)
	b.Status = "scribbled"

	again, err := store.GetBooking(ctx, "b7")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, again.Status)
}

func TestOrderHistoryIsAppendOnlyAndOrdered(t *testing.T) {
	store := storage.NewInMemoryStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		for _, status := range []string{"assigned", "picked_up", "delivered"} {
			if err := tx.AppendOrderHistory(ctx, &models.OrderHistory{
				OrderID: "d5", Status: status, Actor: "c1", CreatedAt: time.Now(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entries, err := store.ListOrderHistory(ctx, "d5")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "assigned", entries[0].Status)
	assert.Equal(t, "delivered", entries[2].Status)
	assert.Less(t, entries[0].ID, entries[2].ID)
}
