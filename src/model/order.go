package model

import "time"

// OrderStatus is the internal lifecycle vocabulary of a panel order.
type OrderStatus string

const (
	OrderStatusPlacing    OrderStatus = "placing"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in progress"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusError      OrderStatus = "error"
)

// IsTerminal reports whether no further reconciliation happens for the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusError:
		return true
	}
	return false
}

// IsSyncable reports whether an order in this status is refreshed from the panel.
func (s OrderStatus) IsSyncable() bool {
	switch s {
	case OrderStatusPlacing, OrderStatusInProgress, OrderStatusPending, OrderStatusPartial:
		return true
	}
	return false
}

// Order is a locally tracked panel order.
type Order struct {
	ID              string      `gorm:"primaryKey;size:64" json:"id"`
	UpstreamOrderID *string     `gorm:"uniqueIndex;size:64" json:"upstreamOrderId,omitempty"`
	ServiceID       string      `gorm:"size:64" json:"serviceId"`
	Link            string      `gorm:"type:text" json:"link"`
	Quantity        int64       `json:"quantity"`
	Runs            int64       `json:"runs,omitempty"`
	Interval        int64       `json:"interval,omitempty"`
	Status          OrderStatus `gorm:"size:30;not null;default:pending;index" json:"status"`
	Error           string      `gorm:"type:text" json:"error,omitempty"`
	ChatID          *int64      `gorm:"index" json:"chatId"`
	SyncAttempts    int         `gorm:"not null;default:0" json:"syncAttempts"`

	// UpstreamData keeps the last raw status payload returned by the panel.
	UpstreamData string `gorm:"type:text" json:"upstreamData,omitempty"`

	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// TableName allows you to control the exact table name for orders.
func (Order) TableName() string {
	return "orders"
}

// UpstreamID returns the panel order id, or "" when the order was never placed upstream.
func (o Order) UpstreamID() string {
	if o.UpstreamOrderID == nil {
		return ""
	}
	return *o.UpstreamOrderID
}

// HasUpstreamID reports whether the order carries a non-empty panel order id.
func (o Order) HasUpstreamID() bool {
	return o.UpstreamID() != ""
}
