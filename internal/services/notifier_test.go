package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
)

type flakySender struct {
	mu       sync.Mutex
	failures int
	sent     []string
}

func (s *flakySender) Send(ctx context.Context, userID, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("push gateway unavailable")
	}
	s.sent = append(s.sent, userID+": "+title)
	return nil
}

func TestNotifierRetriesUntilDelivered(t *testing.T) {
	sender := &flakySender{failures: 2}
	n := services.NewNotifier(sender, logger.NewLogger())

	err := n.HandleOrderEvent(&models.OrderEvent{
		Type:       models.EventParentReady,
		CustomerID: "u1",
		Status:     models.DeliveryReadyForPickup,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "u1: Order ready", sender.sent[0])
}

func TestNotifierGivesUpAfterRetries(t *testing.T) {
	sender := &flakySender{failures: 100}
	n := services.NewNotifier(sender, logger.NewLogger())

	err := n.HandleOrderEvent(&models.OrderEvent{
		Type:       models.EventCheckoutCompleted,
		CustomerID: "u1",
		Timestamp:  time.Now(),
	})
	assert.Error(t, err)
}

func TestNotifierIgnoresUninterestingEvents(t *testing.T) {
	sender := &flakySender{}
	n := services.NewNotifier(sender, logger.NewLogger())

	require.NoError(t, n.HandleOrderEvent(&models.OrderEvent{
		Type:      models.EventBookingStatusChanged,
		Status:    models.BookingCompleted,
		Timestamp: time.Now(),
	}))
	assert.Empty(t, sender.sent)
}

func TestNotifierRoutesAssignmentToCourier(t *testing.T) {
	sender := &flakySender{}
	n := services.NewNotifier(sender, logger.NewLogger())

	require.NoError(t, n.HandleOrderEvent(&models.OrderEvent{
		Type:      models.EventCourierAssigned,
		OrderID:   "d1",
		CourierID: "c1",
		Timestamp: time.Now(),
	}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "c1: New delivery", sender.sent[0])
}
