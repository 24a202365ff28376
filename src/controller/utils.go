package controller

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/model"
)

const exceptionLevel = "error"

type exceptionRepository interface {
	Create(ctx context.Context, exception *model.Exception) error
}

// Capture logs a failed order operation and stores it as an exception row
// keyed by the local and upstream order ids. A nil repo only logs.
func Capture(
	ctx context.Context,
	repo exceptionRepository,
	service string,
	module string,
	method string,
	order *model.Order,
	err error,
	extra map[string]interface{},
) {
	if err == nil {
		return
	}

	exc := &model.Exception{
		Service:   service,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     exceptionLevel,
		CreatedAt: time.Now(),
	}
	if order != nil {
		exc.OrderID = order.ID
		exc.UpstreamOrderID = order.UpstreamID()
	}
	if len(extra) > 0 {
		if b, e := json.Marshal(extra); e == nil {
			exc.Context = string(b)
		}
	}

	logger.WithFields(map[string]interface{}{
		"service":     service,
		"module":      module,
		"method":      method,
		"order_id":    exc.OrderID,
		"upstream_id": exc.UpstreamOrderID,
	}).WithError(err).Error("Order failure captured")

	if repo == nil {
		return
	}
	if e := repo.Create(ctx, exc); e != nil {
		logger.WithError(e).Error("Failed to persist exception")
	}
}
