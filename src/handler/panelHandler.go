package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"smmpanel/src/controller"
	"smmpanel/src/model"
)

type servicesLister interface {
	ListServices(ctx context.Context, key string) (*controller.ServicesResult, error)
}

type balanceGetter interface {
	GetBalance(ctx context.Context, key string) (*model.Balance, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, p model.PlaceOrderPayload) (*controller.PlacementResult, error)
}

type orderStatusGetter interface {
	GetOrderStatus(ctx context.Context, identifier string) (*controller.OrderLookup, error)
}

type orderLister interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
}

// ListServicesHandler returns the filtered panel services. An optional
// "key" query parameter overrides the stored panel key.
func ListServicesHandler(svc servicesLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListServices(r.Context(), r.URL.Query().Get("key"))
		if err != nil {
			logger.WithError(err).Error("failed to fetch panel services")
			writeUpstreamError(w, "Failed to fetch services from panel", err)
			return
		}

		if len(result.Services) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func GetBalanceHandler(svc balanceGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := svc.GetBalance(r.Context(), r.URL.Query().Get("key"))
		if err != nil {
			logger.WithError(err).Error("failed to fetch panel balance")
			writeUpstreamError(w, "Failed to get balance", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"balance": balance})
	}
}

// PlaceOrderHandler places an order. A rejected placement answers 502 and
// still returns the local order, now in error status.
func PlaceOrderHandler(svc orderPlacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.PlaceOrderPayload
		if err := decodeLenientJSON(r, &payload); err != nil {
			logger.WithError(err).Warn("invalid place order payload")
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		result, err := svc.PlaceOrder(r.Context(), payload)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, result)
		case errors.Is(err, controller.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, controller.ErrPlacementFailed) && result != nil:
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":      "Panel order failed",
				"detail":     upstreamDetail(err),
				"localOrder": result.LocalOrder,
			})
		default:
			logger.WithError(err).Error("failed to place order")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

// GetOrderStatusHandler looks an order up by local or upstream id.
func GetOrderStatusHandler(svc orderStatusGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookup, err := svc.GetOrderStatus(r.Context(), chi.URLParam(r, "id"))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, lookup)
		case errors.Is(err, controller.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "Order not found")
		default:
			logger.WithError(err).Error("failed to fetch order status")
			writeError(w, http.StatusBadGateway, upstreamDetail(err))
		}
	}
}

// ListOrdersHandler returns all orders after a reconciliation pass.
func ListOrdersHandler(svc orderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list orders")
			writeError(w, http.StatusInternalServerError, "Failed to load orders")
			return
		}
		if orders == nil {
			orders = []model.Order{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
	}
}
