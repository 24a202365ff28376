// Package notify pushes order status changes to interested parties.
package notify

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/model"
)

// Notifier is told about an order whose status changed.
type Notifier interface {
	NotifyStatus(ctx context.Context, order model.Order) error
}

// StatusEvent is the payload published for a status change.
type StatusEvent struct {
	OrderID         string            `json:"orderId"`
	UpstreamOrderID string            `json:"upstreamOrderId,omitempty"`
	Status          model.OrderStatus `json:"status"`
	Error           string            `json:"error,omitempty"`
	ChatID          *int64            `json:"chatId,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func NewStatusEvent(order model.Order) StatusEvent {
	return StatusEvent{
		OrderID:         order.ID,
		UpstreamOrderID: order.UpstreamID(),
		Status:          order.Status,
		Error:           order.Error,
		ChatID:          order.ChatID,
		UpdatedAt:       order.UpdatedAt,
	}
}

// Multi fans a notification out to every notifier. A failing notifier is
// logged and does not stop the others.
type Multi []Notifier

func (m Multi) NotifyStatus(ctx context.Context, order model.Order) error {
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyStatus(ctx, order); err != nil {
			logger.WithFields(map[string]interface{}{
				"notifier": fmt.Sprintf("%T", n),
				"order_id": order.ID,
				"status":   order.Status,
			}).WithError(err).Warn("Status notification failed")
		}
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyStatus(context.Context, model.Order) error { return nil }

// LogNotifier writes status changes to the application log.
type LogNotifier struct{}

func (LogNotifier) NotifyStatus(_ context.Context, order model.Order) error {
	logger.WithFields(map[string]interface{}{
		"order_id":      order.ID,
		"upstream_id":   order.UpstreamID(),
		"status":        order.Status,
		"sync_attempts": order.SyncAttempts,
	}).Info("Order status changed")
	return nil
}
