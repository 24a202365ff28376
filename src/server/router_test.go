package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/src/controller"
	"smmpanel/src/model"
)

type stubPanel struct{}

func (stubPanel) ListServices(context.Context, string) (*controller.ServicesResult, error) {
	return &controller.ServicesResult{Services: []model.ServiceDescriptor{{Service: "1", Name: "Twitter Views"}}}, nil
}

func (stubPanel) GetBalance(context.Context, string) (*model.Balance, error) {
	return &model.Balance{Currency: "USD"}, nil
}

func (stubPanel) PlaceOrder(context.Context, model.PlaceOrderPayload) (*controller.PlacementResult, error) {
	return &controller.PlacementResult{LocalOrder: model.Order{ID: "a"}}, nil
}

func (stubPanel) GetOrderStatus(_ context.Context, id string) (*controller.OrderLookup, error) {
	return &controller.OrderLookup{Local: model.Order{ID: id}}, nil
}

func (stubPanel) ListOrders(context.Context) ([]model.Order, error) {
	return []model.Order{{ID: "a"}}, nil
}

func (stubPanel) GetSettings(context.Context) (*model.Settings, error) {
	return &model.Settings{}, nil
}

func (stubPanel) UpdatePanelKey(context.Context, string) error { return nil }

type stubUsers struct{}

func (stubUsers) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, assert.AnError
}

func (stubUsers) UpdatePassword(context.Context, uint, string) error { return nil }

type stubTokens struct{}

func (stubTokens) Issue(*model.User) (string, error) { return "t", nil }

// headerAuth lets requests with "Authorization: ok" through.
func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(deps Dependencies) http.Handler {
	deps.Panel = stubPanel{}
	deps.Users = stubUsers{}
	deps.Tokens = stubTokens{}
	if deps.RequireAuth == nil {
		deps.RequireAuth = headerAuth
	}
	return NewRouter(Config{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RequestTimeout:     time.Second,
		ServiceName:        "smmpanel",
	}, deps)
}

func do(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(Dependencies{})

	rr := do(h, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["timestamp"])

	rr = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestRouter(Dependencies{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/panel/services"},
		{http.MethodGet, "/api/panel/balance"},
		{http.MethodPost, "/api/panel/order"},
		{http.MethodGet, "/api/panel/order/abc"},
		{http.MethodGet, "/api/panel/orders"},
		{http.MethodGet, "/api/settings"},
		{http.MethodPut, "/api/settings/panel-key"},
		{http.MethodPost, "/api/users/me/password"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := do(h, route.method, route.path, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	rr := do(h, http.MethodGet, "/api/panel/order/abc", "ok")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"abc"`)

	rr = do(h, http.MethodGet, "/api/panel/orders", "ok")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginIsPublic(t *testing.T) {
	h := newTestRouter(Dependencies{})

	rr := do(h, http.MethodPost, "/api/auth/login", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMissingAuthenticatorDeniesEverything(t *testing.T) {
	h := NewRouter(Config{}, Dependencies{Panel: stubPanel{}, Users: stubUsers{}, Tokens: stubTokens{}})

	rr := do(h, http.MethodGet, "/api/panel/orders", "ok")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOptionalRoutes(t *testing.T) {
	called := map[string]bool{}
	h := newTestRouter(Dependencies{
		StatusStream: func(w http.ResponseWriter, r *http.Request) { called["ws"] = true },
		BotWebhook:   func(w http.ResponseWriter, r *http.Request) { called["bot"] = true },
	})

	do(h, http.MethodPost, "/bot/TOKEN", "")
	assert.True(t, called["bot"])

	rr := do(h, http.MethodGet, "/api/orders/ws", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	do(h, http.MethodGet, "/api/orders/ws", "ok")
	assert.True(t, called["ws"])

	rr = do(newTestRouter(Dependencies{}), http.MethodPost, "/bot/TOKEN", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/panel/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- StartServer(ctx, Config{Port: "0", ShutdownTimeout: time.Second}, http.NotFoundHandler())
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
