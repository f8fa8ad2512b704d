package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/logger"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/models"
)

// NotificationSender delivers a push/SMS message to one user. Implementations
// live at the edge; the worker only cares that Send eventually succeeds.
type NotificationSender interface {
	Send(ctx context.Context, userID, title, body string) error
}

// Notifier turns order events from the consumer group into customer
// notifications. Sends are retried with exponential backoff before the event
// is dropped.
type Notifier struct {
	sender NotificationSender
	log    *logger.Logger
}

func NewNotifier(sender NotificationSender, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// HandleOrderEvent is plugged into the Kafka consumer loop.
func (n *Notifier) HandleOrderEvent(event *models.OrderEvent) error {
	userID, title, body := n.compose(event)
	if userID == "" || body == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	err := backoff.Retry(func() error {
		return n.sender.Send(ctx, userID, title, body)
	}, policy)
	if err != nil {
		n.log.Error("NOTIFY", fmt.Sprintf("Giving up on %s notification for user %s: %v", event.Type, userID, err))
		return err
	}

	n.log.LogProcess("NOTIFY", "Sent "+event.Type+" notification to user "+userID)
	return nil
}

func (n *Notifier) compose(event *models.OrderEvent) (userID, title, body string) {
	switch event.Type {
	case models.EventCheckoutCompleted:
		return event.CustomerID, "Order received", "Your order has been placed and is waiting for confirmation."
	case models.EventParentReady:
		return event.CustomerID, "Order ready", "Your full order is ready."
	case models.EventParentStatusChanged:
		return event.CustomerID, "Order update", "Your order is now " + event.Status + "."
	case models.EventBookingStatusChanged:
		switch event.Status {
		case models.BookingConfirmed:
			return event.CustomerID, "Booking confirmed", "A provider confirmed part of your order."
		case models.BookingCancelled, models.BookingRejected:
			return event.CustomerID, "Booking update", "Part of your order was " + event.Status + "."
		}
		return "", "", ""
	case models.EventCourierAssigned:
		return event.CourierID, "New delivery", "You have been assigned order " + event.OrderID + "."
	default:
		return "", "", ""
	}
}
