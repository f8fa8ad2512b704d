package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

func TestMockModePublishesWithoutBroker(t *testing.T) {
	p, err := NewProducer(nil, true, logger.NewLogger())
	require.NoError(t, err)
	defer p.Close()

	err = p.PublishOrderEvent(&models.OrderEvent{
		Type:      models.EventCheckoutCompleted,
		OrderID:   "d1",
		Timestamp: time.Now(),
	})
	assert.NoError(t, err)
}

func TestTopicRouting(t *testing.T) {
	p := &Producer{mockMode: true, log: logger.NewLogger()}

	cases := map[string]string{
		models.EventCheckoutCompleted:     "order-checkout",
		models.EventBookingStatusChanged:  "booking-status",
		models.EventDeliveryStatusChanged: "delivery-status",
		models.EventCourierAssigned:       "delivery-status",
		models.EventParentStatusChanged:   "parent-status",
		models.EventParentReady:           "parent-status",
		"something.unknown":               "order-events",
	}
	for eventType, topic := range cases {
		assert.Equal(t, topic, p.getTopicForEvent(eventType), "event %s", eventType)
	}
}

func TestPartitionKeyPrefersMostSpecificEntity(t *testing.T) {
	e := &models.OrderEvent{Type: models.EventCourierAssigned, OrderID: "d1", BookingID: "b1", ParentOrderID: "p1"}
	assert.Equal(t, "d1", e.PartitionKey())

	e = &models.OrderEvent{Type: models.EventBookingStatusChanged, BookingID: "b1", ParentOrderID: "p1"}
	assert.Equal(t, "b1", e.PartitionKey())

	e = &models.OrderEvent{Type: models.EventParentReady, ParentOrderID: "p1"}
	assert.Equal(t, "p1", e.PartitionKey())
}
