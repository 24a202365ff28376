package controller

import (
	"context"

	"smmpanel/src/model"
)

type panelGateway interface {
	ListServices(ctx context.Context, key string) ([]model.ServiceDescriptor, error)
	PlaceOrder(ctx context.Context, key string, req model.PlaceOrderRequest) (*model.AddOrderResponse, error)
	GetOrderStatus(ctx context.Context, key, upstreamOrderID string) (*model.OrderStatusResponse, error)
	GetBalance(ctx context.Context, key string) (*model.Balance, error)
}

type orderStore interface {
	Upsert(ctx context.Context, order model.Order) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.Order, error)
}

type settingsStore interface {
	Get(ctx context.Context) (*model.Settings, error)
	Set(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error)
}
