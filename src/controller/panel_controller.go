package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"smmpanel/src/cache"
	"smmpanel/src/mapper"
	"smmpanel/src/metrics"
	"smmpanel/src/model"
	"smmpanel/src/notify"
	"smmpanel/src/repository"
)

const (
	servicesCacheKey   = "panel:services"
	defaultServicesTTL = 15 * time.Minute
	minPanelKeyLength  = 10

	// Raw status assumed when the panel accepts an order without reporting one.
	defaultPlacementStatus = "processing"
)

var (
	ErrInvalidPanelKey = errors.New("invalid panel API key")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPlacementFailed = errors.New("panel order failed")
)

// ServicesResult is the filtered service list and whether it came from cache.
type ServicesResult struct {
	FromCache bool                      `json:"fromCache"`
	Services  []model.ServiceDescriptor `json:"services"`
}

// PlacementResult is returned by PlaceOrder. On ErrPlacementFailed only
// LocalOrder is set and carries the error status.
type PlacementResult struct {
	LocalOrder       model.Order             `json:"localOrder"`
	UpstreamResponse *model.AddOrderResponse `json:"upstreamResponse,omitempty"`
}

// OrderLookup is a local order and, when it was placed upstream, its live panel status.
type OrderLookup struct {
	Local  model.Order                `json:"local"`
	Status *model.OrderStatusResponse `json:"status,omitempty"`
}

// PanelController exposes the panel operations used by the HTTP handlers,
// the bot and the CLI.
type PanelController struct {
	panel       panelGateway
	orders      orderStore
	settings    settingsStore
	keys        *KeyResolver
	reconciler  *Reconciler
	cache       cache.Store
	notifier    notify.Notifier
	exceptions  exceptionRepository
	servicesTTL time.Duration
	service     string
}

func NewPanelController(
	panel panelGateway,
	orders orderStore,
	settings settingsStore,
	keys *KeyResolver,
	reconciler *Reconciler,
	store cache.Store,
	notifier notify.Notifier,
	exceptions exceptionRepository,
	config Config,
) *PanelController {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	ttl := config.ServicesCacheTTL
	if ttl <= 0 {
		ttl = defaultServicesTTL
	}

	return &PanelController{
		panel:       panel,
		orders:      orders,
		settings:    settings,
		keys:        keys,
		reconciler:  reconciler,
		cache:       store,
		notifier:    notifier,
		exceptions:  exceptions,
		servicesTTL: ttl,
		service:     config.ServiceName,
	}
}

// ListServices returns the filtered panel services. Without an explicit key
// a non-empty list is served from cache while fresh.
func (c *PanelController) ListServices(ctx context.Context, key string) (*ServicesResult, error) {
	useCache := c.cache != nil && strings.TrimSpace(key) == ""

	if useCache {
		var cached []model.ServiceDescriptor
		ok, err := c.cache.Get(ctx, servicesCacheKey, &cached)
		if err != nil {
			logger.WithError(err).Warn("Services cache read failed")
		}
		if ok && len(cached) > 0 {
			return &ServicesResult{FromCache: true, Services: cached}, nil
		}
	}

	resolved, err := c.keys.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	services, err := c.panel.ListServices(ctx, resolved)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := c.cache.Set(ctx, servicesCacheKey, services, c.servicesTTL); err != nil {
			logger.WithError(err).Warn("Services cache write failed")
		}
	}

	return &ServicesResult{Services: services}, nil
}

// GetBalance returns the panel balance for the resolved key.
func (c *PanelController) GetBalance(ctx context.Context, key string) (*model.Balance, error) {
	resolved, err := c.keys.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.panel.GetBalance(ctx, resolved)
}

func validatePlaceOrder(p model.PlaceOrderPayload) error {
	switch {
	case strings.TrimSpace(p.ServiceID.String()) == "":
		return fmt.Errorf("%w: serviceId is required", ErrInvalidOrder)
	case strings.TrimSpace(p.Link) == "":
		return fmt.Errorf("%w: link is required", ErrInvalidOrder)
	case p.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidOrder)
	case p.Runs < 0 || p.Interval < 0:
		return fmt.Errorf("%w: runs and interval must not be negative", ErrInvalidOrder)
	}
	return nil
}

// PlaceOrder stores a provisional order, places it on the panel and records
// the outcome on the local order.
//
// When the panel call fails the order is saved with status error and the
// returned error wraps ErrPlacementFailed; the result still holds the order.
func (c *PanelController) PlaceOrder(ctx context.Context, p model.PlaceOrderPayload) (*PlacementResult, error) {
	if err := validatePlaceOrder(p); err != nil {
		return nil, err
	}

	key, err := c.keys.Resolve(ctx, p.Key)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	local, err := c.orders.Upsert(ctx, model.Order{
		ServiceID: strings.TrimSpace(p.ServiceID.String()),
		Link:      strings.TrimSpace(p.Link),
		Quantity:  p.Quantity,
		Runs:      p.Runs,
		Interval:  p.Interval,
		Status:    model.OrderStatusPlacing,
		ChatID:    p.ChatID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("save provisional order: %w", err)
	}

	fields := map[string]interface{}{
		"controller": "PanelController",
		"order_id":   local.ID,
		"service_id": local.ServiceID,
		"quantity":   local.Quantity,
	}
	logger.WithFields(fields).Info("Placing order on panel")

	resp, placeErr := c.panel.PlaceOrder(ctx, key, model.PlaceOrderRequest{
		ServiceID: local.ServiceID,
		Link:      local.Link,
		Quantity:  local.Quantity,
		Runs:      local.Runs,
		Interval:  local.Interval,
	})
	if placeErr != nil {
		metrics.OrderPlacements.WithLabelValues(metrics.OutcomeError).Inc()
		return c.failPlacement(ctx, *local, placeErr)
	}

	order := *local
	if upstreamID := strings.TrimSpace(resp.Order.String()); upstreamID != "" {
		order.UpstreamOrderID = &upstreamID
	}
	rawStatus := resp.Status
	if strings.TrimSpace(rawStatus) == "" {
		rawStatus = defaultPlacementStatus
	}
	order.Status = mapper.NormalizeStatus(rawStatus)
	order.UpdatedAt = time.Now()

	saved, err := c.orders.Upsert(ctx, order)
	if err != nil {
		// Placed upstream but not recorded locally: keep the upstream id in the audit trail.
		Capture(ctx, c.exceptions, c.service, "controller", "PlaceOrder", &order, err, map[string]interface{}{
			"stage": "save_placed",
		})
		return nil, fmt.Errorf("save placed order: %w", err)
	}

	metrics.OrderPlacements.WithLabelValues(metrics.OutcomeSuccess).Inc()
	fields["upstream_id"] = saved.UpstreamID()
	fields["status"] = saved.Status
	logger.WithFields(fields).Info("Order placed on panel")

	c.notify(ctx, *saved)

	return &PlacementResult{LocalOrder: *saved, UpstreamResponse: resp}, nil
}

func (c *PanelController) failPlacement(ctx context.Context, order model.Order, cause error) (*PlacementResult, error) {
	order.Status = model.OrderStatusError
	order.Error = cause.Error()
	order.UpdatedAt = time.Now()

	Capture(ctx, c.exceptions, c.service, "controller", "PlaceOrder", &order, cause, map[string]interface{}{
		"service_id": order.ServiceID,
	})

	saved, err := c.orders.Upsert(ctx, order)
	if err != nil {
		logger.WithField("order_id", order.ID).WithError(err).Error("Failed to persist placement failure")
	} else {
		order = *saved
	}

	c.notify(ctx, order)

	return &PlacementResult{LocalOrder: order}, fmt.Errorf("%w: %w", ErrPlacementFailed, cause)
}

// GetOrderStatus finds a local order by local or upstream id and, when it was
// placed upstream, fetches its live panel status.
func (c *PanelController) GetOrderStatus(ctx context.Context, identifier string) (*OrderLookup, error) {
	local, err := c.orders.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, identifier)
	}
	if err != nil {
		return nil, err
	}

	if !local.HasUpstreamID() {
		return &OrderLookup{Local: *local}, nil
	}

	key, err := c.keys.Resolve(ctx, "")
	if err != nil {
		return nil, err
	}

	status, err := c.panel.GetOrderStatus(ctx, key, local.UpstreamID())
	if err != nil {
		return nil, err
	}

	return &OrderLookup{Local: *local, Status: status}, nil
}

// ListOrders returns the deduplicated orders after a reconciliation pass.
func (c *PanelController) ListOrders(ctx context.Context) ([]model.Order, error) {
	return c.reconciler.ListOrders(ctx)
}

// GetSettings returns the stored settings.
func (c *PanelController) GetSettings(ctx context.Context) (*model.Settings, error) {
	return c.settings.Get(ctx)
}

// UpdatePanelKey validates and stores the trimmed panel key.
func (c *PanelController) UpdatePanelKey(ctx context.Context, panelKey string) error {
	key := strings.TrimSpace(panelKey)
	if len(key) < minPanelKeyLength {
		return ErrInvalidPanelKey
	}

	if _, err := c.settings.Set(ctx, model.SettingsPatch{PanelKey: &key}); err != nil {
		return fmt.Errorf("save panel key: %w", err)
	}

	if c.cache != nil {
		// services fetched with the previous key are stale
		if err := c.cache.Delete(ctx, servicesCacheKey); err != nil {
			logger.WithError(err).Warn("Services cache eviction failed")
		}
	}

	logger.WithField("controller", "PanelController").Info("Panel key updated")
	return nil
}

func (c *PanelController) notify(ctx context.Context, order model.Order) {
	if err := c.notifier.NotifyStatus(ctx, order); err != nil {
		logger.WithField("order_id", order.ID).WithError(err).Warn("Status notification failed")
	}
}
