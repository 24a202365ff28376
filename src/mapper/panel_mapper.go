package mapper

import (
	"strings"

	"smmpanel/src/model"
)

// panelStatuses maps lowercased panel status text to the internal vocabulary.
var panelStatuses = map[string]model.OrderStatus{
	"processing":  model.OrderStatusPlacing,
	"in progress": model.OrderStatusInProgress,
	"placed":      model.OrderStatusInProgress,
	"completed":   model.OrderStatusCompleted,
	"partial":     model.OrderStatusPartial,
	"canceled":    model.OrderStatusCancelled,
	"cancelled":   model.OrderStatusCancelled,
	"refund":      model.OrderStatusRefunded,
	"refunds":     model.OrderStatusRefunded,
	"pending":     model.OrderStatusPending,
	"error":       model.OrderStatusError,
}

// NormalizeStatus maps a raw panel status onto the internal vocabulary.
// Matching ignores case and surrounding whitespace; anything unknown,
// including the empty string, is treated as pending.
func NormalizeStatus(raw string) model.OrderStatus {
	if status, ok := panelStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return model.OrderStatusPending
}
