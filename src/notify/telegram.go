package notify

import (
	"context"
	"fmt"

	"smmpanel/src/connectors"
	"smmpanel/src/model"
)

// MessageSender is the part of the Telegram client the notifier needs.
type MessageSender interface {
	SendMessage(ctx context.Context, msg connectors.OutgoingMessage) error
}

// TelegramNotifier messages the chat an order was placed from.
// Orders without a chat are skipped.
type TelegramNotifier struct {
	sender MessageSender
}

func NewTelegramNotifier(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

func (n *TelegramNotifier) NotifyStatus(ctx context.Context, order model.Order) error {
	if order.ChatID == nil || n.sender == nil {
		return nil
	}
	return n.sender.SendMessage(ctx, connectors.OutgoingMessage{
		ChatID: *order.ChatID,
		Text:   StatusMessage(order),
	})
}

// StatusMessage renders the user facing text for an order update.
func StatusMessage(order model.Order) string {
	text := fmt.Sprintf("📦 Order update\n\n🆔 ID: %s\n📊 Status: %s", order.ID, order.Status)
	if order.HasUpstreamID() {
		text += fmt.Sprintf("\n🔢 Panel order: %s", order.UpstreamID())
	}
	if order.Status == model.OrderStatusError && order.Error != "" {
		text += "\n❗ " + order.Error
	}
	return text
}
