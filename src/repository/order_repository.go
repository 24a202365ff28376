package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"smmpanel/src/database"
	"smmpanel/src/model"
)

// ErrOrderNotFound is returned when no order matches the given identifier.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository handles read/write operations for panel orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new repository instance using the main read/write database.
func NewOrderRepository() *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Info("Creating new OrderRepository with MainDB")

	return &OrderRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *OrderRepository) WithDB(db *gorm.DB) *OrderRepository {
	logger.WithField("component", "OrderRepository").
		Debug("Creating OrderRepository with custom DB instance")

	return &OrderRepository{db: db}
}

// Upsert persists the order and returns the stored record.
//
// A missing ID is generated. The existing record is looked up by upstream
// order id first, then by ID. On a match the non-zero fields of order are
// merged onto it; otherwise a new record is inserted.
func (r *OrderRepository) Upsert(
	ctx context.Context,
	order model.Order,
) (*model.Order, error) {

	if strings.TrimSpace(order.ID) == "" {
		order.ID = uuid.NewString()
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "OrderRepository",
		"op":          "Upsert",
		"id":          order.ID,
		"upstream_id": order.UpstreamID(),
		"status":      order.Status,
	}).Debug("Upserting order")

	existing, err := r.findMatch(ctx, order)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Upsert",
			"id":   order.ID,
		}).WithError(err).Error("Failed to look up order")

		return nil, err
	}

	if existing == nil {
		if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
			logger.WithFields(map[string]interface{}{
				"repo": "OrderRepository",
				"op":   "Upsert",
				"id":   order.ID,
			}).WithError(err).Error("Failed to create order")

			return nil, err
		}

		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Upsert",
			"id":   order.ID,
		}).Info("Order created successfully")

		return &order, nil
	}

	// Identity and creation time belong to the stored record.
	patch := order
	patch.ID = ""
	patch.CreatedAt = existing.CreatedAt

	if err := r.db.WithContext(ctx).Model(existing).Updates(patch).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "Upsert",
			"id":   existing.ID,
		}).WithError(err).Error("Failed to update order")

		return nil, err
	}

	var stored model.Order
	if err := r.db.WithContext(ctx).First(&stored, "id = ?", existing.ID).Error; err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "OrderRepository",
		"op":     "Upsert",
		"id":     stored.ID,
		"status": stored.Status,
	}).Info("Order updated successfully")

	return &stored, nil
}

// findMatch returns the record the given order resolves to, or nil.
func (r *OrderRepository) findMatch(ctx context.Context, order model.Order) (*model.Order, error) {
	if order.HasUpstreamID() {
		found, err := r.first(ctx, "upstream_order_id = ?", order.UpstreamID())
		if err != nil || found != nil {
			return found, err
		}
	}
	return r.first(ctx, "id = ?", order.ID)
}

func (r *OrderRepository) first(ctx context.Context, query string, arg interface{}) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where(query, arg).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]model.Order, error) {
	logger.WithFields(map[string]interface{}{
		"repo": "OrderRepository",
		"op":   "List",
	}).Debug("Fetching orders")

	var orders []model.Order

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "OrderRepository",
			"op":   "List",
		}).WithError(err).Error("Failed to fetch orders")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "OrderRepository",
		"op":          "List",
		"rows_return": len(orders),
	}).Debug("Orders fetched")

	return orders, nil
}

// FindByIdentifier fetches an order by its local ID or its upstream order id.
// Returns ErrOrderNotFound if neither matches.
func (r *OrderRepository) FindByIdentifier(
	ctx context.Context,
	identifier string,
) (*model.Order, error) {

	identifier = strings.TrimSpace(identifier)

	logger.WithFields(map[string]interface{}{
		"repo":       "OrderRepository",
		"op":         "FindByIdentifier",
		"identifier": identifier,
	}).Debug("Fetching order by identifier")

	if identifier == "" {
		return nil, ErrOrderNotFound
	}

	var order model.Order

	err := r.db.WithContext(ctx).
		Where("id = ? OR upstream_order_id = ?", identifier, identifier).
		Order("created_at DESC").
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":       "OrderRepository",
				"op":         "FindByIdentifier",
				"identifier": identifier,
			}).Info("Order not found")

			return nil, ErrOrderNotFound
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "OrderRepository",
			"op":         "FindByIdentifier",
			"identifier": identifier,
		}).WithError(err).Error("Failed to fetch order")

		return nil, err
	}

	return &order, nil
}
