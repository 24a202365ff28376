package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"smmpanel/src/bot"
	"smmpanel/src/controller"
	"smmpanel/src/handler"
	"smmpanel/src/model"
)

// PanelService is everything the HTTP API asks of the panel controller.
type PanelService interface {
	ListServices(ctx context.Context, key string) (*controller.ServicesResult, error)
	GetBalance(ctx context.Context, key string) (*model.Balance, error)
	PlaceOrder(ctx context.Context, p model.PlaceOrderPayload) (*controller.PlacementResult, error)
	GetOrderStatus(ctx context.Context, identifier string) (*controller.OrderLookup, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdatePanelKey(ctx context.Context, panelKey string) error
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint, hashed string) error
}

type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// Dependencies are the collaborators mounted on the router. StatusStream,
// StreamAuth and BotWebhook are optional.
type Dependencies struct {
	Panel        PanelService
	Users        UserStore
	Tokens       TokenIssuer
	RequireAuth  func(http.Handler) http.Handler
	StreamAuth   func(http.Handler) http.Handler
	StatusStream http.HandlerFunc
	BotWebhook   http.HandlerFunc
}

func NewRouter(config Config, deps Dependencies) http.Handler {
	if deps.RequireAuth == nil {
		deps.RequireAuth = denyAll
	}
	if deps.StreamAuth == nil {
		deps.StreamAuth = deps.RequireAuth
	}

	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, config.ServiceName)
	})
	r.Get("/healthcheck", healthcheck)
	r.Get("/health", healthcheck)
	r.Handle("/metrics", promhttp.Handler())

	if deps.BotWebhook != nil {
		r.Post(bot.WebhookPath, deps.BotWebhook)
	}

	// Websocket connections are long lived and stay outside the request timeout.
	if deps.StatusStream != nil {
		r.With(deps.StreamAuth).Get("/api/orders/ws", deps.StatusStream)
	}

	r.Group(func(r chi.Router) {
		if config.RequestTimeout > 0 {
			r.Use(middleware.Timeout(config.RequestTimeout))
		}

		r.Post("/api/auth/login", handler.LoginHandler(deps.Users, deps.Tokens))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(deps.RequireAuth)

			r.Get("/api/panel/services", handler.ListServicesHandler(deps.Panel))
			r.Get("/api/panel/balance", handler.GetBalanceHandler(deps.Panel))
			r.Post("/api/panel/order", handler.PlaceOrderHandler(deps.Panel))
			r.Get("/api/panel/order/{id}", handler.GetOrderStatusHandler(deps.Panel))
			r.Get("/api/panel/orders", handler.ListOrdersHandler(deps.Panel))

			r.Get("/api/settings", handler.GetSettingsHandler(deps.Panel))
			r.Put("/api/settings/panel-key", handler.UpdatePanelKeyHandler(deps.Panel))

			r.Post("/api/users/me/password", handler.ChangePasswordHandler(deps.Users))
		})
	})

	return r
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	})
}

func healthcheck(w http.ResponseWriter, _ *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.WithError(err).Error("healthcheck write error")
	}
}

func writeStatus(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":        true,
		"message":   name + " backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.WithError(err).Error("status write error")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern keeps the bot token out of the logs.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       path,
			"status":     ww.Status(),
			"duration":   time.Since(started).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}
