package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStringDecodesNumbersAndStrings(t *testing.T) {
	var payload struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a": 23501, "b": " 555 ", "c": null}`), &payload))

	assert.Equal(t, FlexString("23501"), payload.A)
	assert.Equal(t, FlexString("555"), payload.B)
	assert.Equal(t, FlexString(""), payload.C)
}

func TestFlexStringRejectsObjects(t *testing.T) {
	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &f))
}

func TestAddOrderResponseMarshalsRawPayload(t *testing.T) {
	resp := AddOrderResponse{Order: "555", Raw: json.RawMessage(`{"order":555,"extra":"kept"}`)}

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"order":555,"extra":"kept"}`, string(out))
}

func TestOrderStatusHelpers(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPlacing, OrderStatusInProgress, OrderStatusPending, OrderStatusPartial} {
		assert.True(t, s.IsSyncable(), s)
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded, OrderStatusError} {
		assert.False(t, s.IsSyncable(), s)
		assert.True(t, s.IsTerminal(), s)
	}

	empty := ""
	assert.False(t, Order{UpstreamOrderID: &empty}.HasUpstreamID())
	assert.False(t, Order{}.HasUpstreamID())
}

func TestOrderStatusResponseMarshalAddsMappedStatus(t *testing.T) {
	resp := OrderStatusResponse{
		Status:       "In progress",
		MappedStatus: OrderStatusInProgress,
		Raw:          json.RawMessage(`{"status":"In progress","remains":"10"}`),
	}

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"In progress","remains":"10","mappedStatus":"in progress"}`, string(out))
}
