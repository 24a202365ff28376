package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/src/connectors"
	"smmpanel/src/controller"
	"smmpanel/src/model"
)

type mockPanelService struct {
	services    *controller.ServicesResult
	balance     *model.Balance
	placement   *controller.PlacementResult
	lookup      *controller.OrderLookup
	orders      []model.Order
	err         error
	keySeen     string
	payloadSeen model.PlaceOrderPayload
	idSeen      string
}

func (m *mockPanelService) ListServices(_ context.Context, key string) (*controller.ServicesResult, error) {
	m.keySeen = key
	return m.services, m.err
}

func (m *mockPanelService) GetBalance(_ context.Context, key string) (*model.Balance, error) {
	m.keySeen = key
	return m.balance, m.err
}

func (m *mockPanelService) PlaceOrder(_ context.Context, p model.PlaceOrderPayload) (*controller.PlacementResult, error) {
	m.payloadSeen = p
	return m.placement, m.err
}

func (m *mockPanelService) GetOrderStatus(_ context.Context, identifier string) (*controller.OrderLookup, error) {
	m.idSeen = identifier
	return m.lookup, m.err
}

func (m *mockPanelService) ListOrders(context.Context) ([]model.Order, error) {
	return m.orders, m.err
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestListServicesHandler(t *testing.T) {
	t.Run("returns services with cache flag", func(t *testing.T) {
		svc := &mockPanelService{services: &controller.ServicesResult{
			FromCache: true,
			Services:  []model.ServiceDescriptor{{Service: "1", Name: "Twitter Views", Rate: decimal.RequireFromString("0.9")}},
		}}
		rr := httptest.NewRecorder()

		ListServicesHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/services?key=abc", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "abc", svc.keySeen)
		body := decodeBody(t, rr)
		assert.Equal(t, true, body["fromCache"])
		assert.Len(t, body["services"], 1)
	})

	t.Run("empty list answers 204", func(t *testing.T) {
		svc := &mockPanelService{services: &controller.ServicesResult{Services: []model.ServiceDescriptor{}}}
		rr := httptest.NewRecorder()

		ListServicesHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/services", nil))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("panel failure answers 502", func(t *testing.T) {
		svc := &mockPanelService{err: &connectors.PanelError{Message: "Invalid API key"}}
		rr := httptest.NewRecorder()

		ListServicesHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/services", nil))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "Invalid API key", decodeBody(t, rr)["detail"])
	})
}

func TestGetBalanceHandler(t *testing.T) {
	svc := &mockPanelService{balance: &model.Balance{Balance: decimal.RequireFromString("100.84"), Currency: "USD"}}
	rr := httptest.NewRecorder()

	GetBalanceHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/balance", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"balance":{"balance":"100.84","currency":"USD"}}`, rr.Body.String())
}

func TestPlaceOrderHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		upstream := "555"
		svc := &mockPanelService{placement: &controller.PlacementResult{
			LocalOrder:       model.Order{ID: "a", UpstreamOrderID: &upstream, Status: model.OrderStatusPlacing},
			UpstreamResponse: &model.AddOrderResponse{Order: "555", Raw: json.RawMessage(`{"order":555}`)},
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{"serviceId":12,"link":"http://x/y","quantity":100,"chatId":42}`))

		PlaceOrderHandler(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.FlexString("12"), svc.payloadSeen.ServiceID)
		require.NotNil(t, svc.payloadSeen.ChatID)
		assert.Equal(t, int64(42), *svc.payloadSeen.ChatID)

		body := decodeBody(t, rr)
		assert.Equal(t, "555", body["localOrder"].(map[string]interface{})["upstreamOrderId"])
		assert.Equal(t, float64(555), body["upstreamResponse"].(map[string]interface{})["order"])
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		svc := &mockPanelService{placement: &controller.PlacementResult{
			LocalOrder: model.Order{ID: "b", Status: model.OrderStatusPending},
		}}
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{"serviceId":"3","link":"http://x/z","quantity":5,"note":"from dashboard"}`))

		PlaceOrderHandler(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.FlexString("3"), svc.payloadSeen.ServiceID)
		assert.Equal(t, "http://x/z", svc.payloadSeen.Link)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		PlaceOrderHandler(&mockPanelService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := &mockPanelService{err: fmt.Errorf("%w: link is required", controller.ErrInvalidOrder)}
		rr := httptest.NewRecorder()
		PlaceOrderHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{"serviceId":"1"}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("placement failure returns the errored local order", func(t *testing.T) {
		cause := &connectors.PanelError{Action: "add", Message: "Not enough funds"}
		svc := &mockPanelService{
			placement: &controller.PlacementResult{LocalOrder: model.Order{ID: "a", Status: model.OrderStatusError, Error: "Not enough funds"}},
			err:       fmt.Errorf("%w: %w", controller.ErrPlacementFailed, cause),
		}
		rr := httptest.NewRecorder()
		PlaceOrderHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{"serviceId":"1","link":"l","quantity":1}`)))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "Not enough funds", body["detail"])
		assert.Equal(t, "error", body["localOrder"].(map[string]interface{})["status"])
	})

	t.Run("store failure answers 500", func(t *testing.T) {
		svc := &mockPanelService{err: assert.AnError}
		rr := httptest.NewRecorder()
		PlaceOrderHandler(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/panel/order", strings.NewReader(`{"serviceId":"1","link":"l","quantity":1}`)))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestGetOrderStatusHandler(t *testing.T) {
	newRouter := func(svc orderStatusGetter) http.Handler {
		r := chi.NewRouter()
		r.Get("/api/panel/order/{id}", GetOrderStatusHandler(svc))
		return r
	}

	t.Run("local only", func(t *testing.T) {
		svc := &mockPanelService{lookup: &controller.OrderLookup{Local: model.Order{ID: "a"}}}
		rr := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/order/a", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "a", svc.idSeen)
		body := decodeBody(t, rr)
		assert.Contains(t, body, "local")
		assert.NotContains(t, body, "status")
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockPanelService{err: fmt.Errorf("%w: x", controller.ErrOrderNotFound)}
		rr := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/order/x", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := &mockPanelService{err: &connectors.PanelError{Message: "Incorrect order ID"}}
		rr := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/order/555", nil))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "Incorrect order ID", decodeBody(t, rr)["error"])
	})
}

func TestListOrdersHandler(t *testing.T) {
	t.Run("wraps orders", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ListOrdersHandler(&mockPanelService{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/orders", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"orders":[]}`, rr.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ListOrdersHandler(&mockPanelService{err: assert.AnError}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/panel/orders", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
