package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexString decodes a JSON string or number into its textual form.
// The panel returns ids and limits as numbers or strings depending on the action.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("flex string: unsupported value %s", string(trimmed))
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// ServiceDescriptor is one entry of the panel "services" action.
type ServiceDescriptor struct {
	Service  FlexString      `json:"service"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Category string          `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Min      FlexString      `json:"min,omitempty"`
	Max      FlexString      `json:"max,omitempty"`
	Refill   bool            `json:"refill,omitempty"`
	Cancel   bool            `json:"cancel,omitempty"`
}

// PlaceOrderRequest holds the fields sent with the panel "add" action.
type PlaceOrderRequest struct {
	ServiceID string
	Link      string
	Quantity  int64
	Runs      int64
	Interval  int64
}

// AddOrderResponse is the panel answer to the "add" action.
type AddOrderResponse struct {
	Order  FlexString      `json:"order"`
	Status string          `json:"status,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// MarshalJSON returns the upstream payload untouched.
func (r AddOrderResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain AddOrderResponse
	return json.Marshal(plain(r))
}

// OrderStatusResponse is the panel answer to the "status" action, augmented
// with the normalized status when the panel reported one.
type OrderStatusResponse struct {
	Charge       string          `json:"charge,omitempty"`
	StartCount   FlexString      `json:"start_count,omitempty"`
	Status       string          `json:"status,omitempty"`
	Remains      FlexString      `json:"remains,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	MappedStatus OrderStatus     `json:"mappedStatus,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// MarshalJSON returns the upstream payload with mappedStatus attached.
func (r OrderStatusResponse) MarshalJSON() ([]byte, error) {
	type plain OrderStatusResponse
	if len(r.Raw) == 0 {
		return json.Marshal(plain(r))
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(r.Raw, &fields); err != nil {
		return json.Marshal(plain(r))
	}
	if r.MappedStatus != "" {
		mapped, err := json.Marshal(r.MappedStatus)
		if err != nil {
			return nil, err
		}
		fields["mappedStatus"] = mapped
	}
	return json.Marshal(fields)
}

// Balance is the panel answer to the "balance" action.
type Balance struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// PanelAPIError is the application-level error body returned by the panel.
type PanelAPIError struct {
	Error string `json:"error"`
}

// PlaceOrderPayload is the body of POST /api/panel/order. The bot builds the
// same value when a conversation is confirmed.
type PlaceOrderPayload struct {
	ServiceID FlexString `json:"serviceId"`
	Link      string     `json:"link"`
	Quantity  int64      `json:"quantity"`
	Runs      int64      `json:"runs,omitempty"`
	Interval  int64      `json:"interval,omitempty"`
	ChatID    *int64     `json:"chatId,omitempty"`

	// Key overrides the stored panel key for this call.
	Key string `json:"key,omitempty"`
}
