package model

import "time"

// Exception represents a system-level error that must be persisted
// for auditing, debugging, and monitoring purposes.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "smm_backend"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "reconciler"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "PlaceOrder"

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack"`

	// debug | info | warn | error | fatal
	Level string `gorm:"size:20;index" json:"level"`

	// Order the failure belongs to, empty for failures outside an order.
	OrderID         string `gorm:"size:36;index" json:"order_id,omitempty"`
	UpstreamOrderID string `gorm:"size:64;index" json:"upstream_order_id,omitempty"`

	// Extra context stored as JSON, e.g. the sync attempt count.
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
