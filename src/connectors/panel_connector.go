package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"smmpanel/src/mapper"
	"smmpanel/src/metrics"
	"smmpanel/src/model"
)

const (
	defaultPanelURL     = "https://justanotherpanel.com/api/v2"
	defaultPanelTimeout = 10 * time.Second

	panelActionServices = "services"
	panelActionAdd      = "add"
	panelActionStatus   = "status"
	panelActionBalance  = "balance"

	genericPanelError = "panel request failed"
)

// PanelError is the single textual error produced for any failed panel call.
type PanelError struct {
	Action     string
	StatusCode int
	Message    string
}

func (e *PanelError) Error() string {
	return e.Message
}

// PanelClient talks to the SMM reseller panel: one endpoint, form-encoded
// POST bodies and an "action" field selecting the operation.
type PanelClient struct {
	baseURL         string
	http            *resty.Client
	platformKeyword string
	contentKeywords []string
}

// NewPanelClient builds a client from the connectors config.
// Panel calls are never retried: a repeated "add" would place a second order.
func NewPanelClient(config Config) *PanelClient {
	baseURL := strings.TrimSpace(config.PanelURL)
	if baseURL == "" {
		baseURL = defaultPanelURL
		logger.Warnf("No panel URL provided, using default: %s", baseURL)
	}

	timeout := config.PanelTimeout
	if timeout <= 0 {
		timeout = defaultPanelTimeout
	}

	keywords := make([]string, 0, len(config.PanelContentKeywords))
	for _, k := range config.PanelContentKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &PanelClient{
		baseURL:         baseURL,
		http:            resty.New().SetTimeout(timeout),
		platformKeyword: strings.ToLower(strings.TrimSpace(config.PanelPlatformKeyword)),
		contentKeywords: keywords,
	}
}

// post sends one action to the panel and returns the raw JSON body.
func (c *PanelClient) post(ctx context.Context, action, key string, fields map[string]string) (body []byte, err error) {
	started := time.Now()
	defer func() { metrics.ObservePanelRequest(action, started, err) }()

	form := map[string]string{"key": key, "action": action}
	for k, v := range fields {
		form[k] = v
	}

	logger.WithFields(map[string]interface{}{
		"connector": "PanelClient",
		"action":    action,
		"fields":    fields,
	}).Debug("Panel HTTP request")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(form).
		Post(c.baseURL)
	if err != nil {
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = genericPanelError
		}
		logger.WithField("action", action).WithError(err).Error("Panel transport failure")
		return nil, &PanelError{Action: action, Message: msg}
	}

	raw := bytes.TrimSpace(resp.Body())

	if resp.IsError() {
		perr := &PanelError{Action: action, StatusCode: resp.StatusCode(), Message: errorMessageFromBody(raw)}
		if perr.Message == "" {
			perr.Message = strings.TrimSpace(resp.Status())
		}
		if perr.Message == "" {
			perr.Message = genericPanelError
		}
		logger.WithFields(map[string]interface{}{
			"action": action,
			"status": resp.StatusCode(),
		}).WithError(perr).Error("Panel returned HTTP error")
		return nil, perr
	}

	// The panel reports application errors with HTTP 200 and {"error": "..."}.
	if len(raw) > 0 && raw[0] == '{' {
		var apiErr model.PanelAPIError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && strings.TrimSpace(apiErr.Error) != "" {
			logger.WithFields(map[string]interface{}{
				"action": action,
				"error":  apiErr.Error,
			}).Warn("Panel rejected request")
			return nil, &PanelError{Action: action, StatusCode: resp.StatusCode(), Message: apiErr.Error}
		}
	}

	return raw, nil
}

// errorMessageFromBody prefers the structured "error" field, then the whole body.
func errorMessageFromBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var apiErr model.PanelAPIError
	if err := json.Unmarshal(raw, &apiErr); err == nil && strings.TrimSpace(apiErr.Error) != "" {
		return apiErr.Error
	}
	return string(raw)
}

// ListServices returns the panel services matching the configured platform
// and content keywords, in upstream order. A non-list response yields an empty list.
func (c *PanelClient) ListServices(ctx context.Context, key string) ([]model.ServiceDescriptor, error) {
	raw, err := c.post(ctx, panelActionServices, key, nil)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.WithField("action", panelActionServices).Warn("Panel services response is not a list, returning empty")
		return []model.ServiceDescriptor{}, nil
	}

	services := make([]model.ServiceDescriptor, 0, len(entries))
	for _, entry := range entries {
		var svc model.ServiceDescriptor
		if err := json.Unmarshal(entry, &svc); err != nil {
			logger.WithField("entry", string(entry)).WithError(err).Warn("Skipping undecodable panel service")
			continue
		}
		if c.matchesService(svc) {
			services = append(services, svc)
		}
	}

	logger.WithFields(map[string]interface{}{
		"connector": "PanelClient",
		"total":     len(entries),
		"matched":   len(services),
	}).Info("Panel services fetched")

	return services, nil
}

func (c *PanelClient) matchesService(svc model.ServiceDescriptor) bool {
	name := strings.ToLower(svc.Name)
	category := strings.ToLower(svc.Category)

	if c.platformKeyword != "" && !strings.Contains(category, c.platformKeyword) && !strings.Contains(name, c.platformKeyword) {
		return false
	}
	for _, k := range c.contentKeywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// PlaceOrder submits an "add" action. Optional numeric fields are sent only when non-zero.
func (c *PanelClient) PlaceOrder(ctx context.Context, key string, req model.PlaceOrderRequest) (*model.AddOrderResponse, error) {
	fields := map[string]string{
		"service": req.ServiceID,
		"link":    req.Link,
	}
	if req.Quantity != 0 {
		fields["quantity"] = strconv.FormatInt(req.Quantity, 10)
	}
	if req.Runs != 0 {
		fields["runs"] = strconv.FormatInt(req.Runs, 10)
	}
	if req.Interval != 0 {
		fields["interval"] = strconv.FormatInt(req.Interval, 10)
	}

	raw, err := c.post(ctx, panelActionAdd, key, fields)
	if err != nil {
		return nil, err
	}

	var resp model.AddOrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &PanelError{Action: panelActionAdd, Message: "unexpected panel response: " + string(raw)}
	}
	resp.Raw = json.RawMessage(raw)

	return &resp, nil
}

// GetOrderStatus queries one upstream order and attaches the normalized status
// when the panel reported one.
func (c *PanelClient) GetOrderStatus(ctx context.Context, key, upstreamOrderID string) (*model.OrderStatusResponse, error) {
	raw, err := c.post(ctx, panelActionStatus, key, map[string]string{"order": upstreamOrderID})
	if err != nil {
		return nil, err
	}

	var resp model.OrderStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &PanelError{Action: panelActionStatus, Message: "unexpected panel response: " + string(raw)}
	}
	resp.Raw = json.RawMessage(raw)
	if resp.Status != "" {
		resp.MappedStatus = mapper.NormalizeStatus(resp.Status)
	}

	return &resp, nil
}

// GetBalance returns the panel account balance.
func (c *PanelClient) GetBalance(ctx context.Context, key string) (*model.Balance, error) {
	raw, err := c.post(ctx, panelActionBalance, key, nil)
	if err != nil {
		return nil, err
	}

	var balance model.Balance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return nil, &PanelError{Action: panelActionBalance, Message: "unexpected panel response: " + string(raw)}
	}

	return &balance, nil
}
