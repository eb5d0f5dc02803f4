package repository

import (
	"errors"

	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderTransition is a compare-and-swap status change plus its history entry
type OrderTransition struct {
	OrderID uint
	From    model.OrderStatus
	Fields  map[string]interface{}
	Entry   model.OrderStatusUpdate
	Restock []StockDelta
}

type OrderRepository interface {
	Create(order *model.Order, stock []StockDelta) error
	ExistsByOrderNumber(orderNumber string) (bool, error)
	FindByID(id uint) (*model.Order, error)
	FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error)
	FindByUserID(userID uint, page Page) ([]model.Order, int64, error)
	FindByShopIDs(shopIDs []uint, status *model.OrderStatus) ([]model.Order, error)
	Transition(t OrderTransition) error
	AppendStatusUpdate(entry *model.OrderStatusUpdate) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusUpdates", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

// Create decrements stock, redeems the coupon and inserts the order with its items and
// initial history in one transaction.
func (r *orderRepository) Create(order *model.Order, stock []StockDelta) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":      order.UserID,
		"order_number": order.OrderNumber,
		"items":        len(order.Items),
		"total_amount": order.TotalAmount,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := applyStock(tx, stock, -1); err != nil {
			return err
		}
		if order.CouponCode != "" {
			if err := redeemCoupon(tx, order.CouponCode); err != nil {
				return err
			}
		}
		return tx.Create(order).Error
	})
	if err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":      order.UserID,
			"order_number": order.OrderNumber,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	return nil
}

func (r *orderRepository) ExistsByOrderNumber(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error; err != nil {
		logger.Error("Failed to check order number", err)
		return false, err
	}
	return count > 0, nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByGatewayOrderID(gatewayOrderID string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by gateway order ID", err, map[string]interface{}{
				"gateway_order_id": gatewayOrderID,
			})
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint, page Page) ([]model.Order, int64, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var total int64
	if err := r.db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		logger.Error("Failed to count orders by user ID", err, map[string]interface{}{"user_id": userID})
		return nil, 0, err
	}

	page = page.Normalize()
	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByShopIDs returns orders with at least one line item from shopIDs. Items are not
// filtered here; callers scope them per viewer.
func (r *orderRepository) FindByShopIDs(shopIDs []uint, status *model.OrderStatus) ([]model.Order, error) {
	if len(shopIDs) == 0 {
		return []model.Order{}, nil
	}
	logger.Debug("Finding orders by shop IDs in database", map[string]interface{}{
		"shop_ids": shopIDs,
	})

	sub := r.db.Model(&model.OrderItem{}).Select("order_id").Where("shop_id IN ?", shopIDs)
	query := r.preloadOrder().Where("id IN (?)", sub)
	if status != nil {
		query = query.Where("order_status = ?", *status)
	}

	var orders []model.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by shop IDs in database", err, map[string]interface{}{
			"shop_ids": shopIDs,
		})
		return nil, err
	}
	return orders, nil
}

// Transition applies the update only if the order is still in t.From, then appends the
// history entry and restocks. Returns ErrStaleState if another writer moved the order first.
func (r *orderRepository) Transition(t OrderTransition) error {
	logger.Debug("Transitioning order status", map[string]interface{}{
		"order_id": t.OrderID,
		"from":     t.From,
		"to":       t.Entry.Status,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND order_status = ?", t.OrderID, t.From).
			Updates(t.Fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}
		entry := t.Entry
		entry.OrderID = t.OrderID
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return applyStock(tx, t.Restock, 1)
	})
	if err != nil {
		if !errors.Is(err, ErrStaleState) {
			logger.Error("Failed to transition order status", err, map[string]interface{}{
				"order_id": t.OrderID,
			})
		}
		return err
	}
	return nil
}

func (r *orderRepository) AppendStatusUpdate(entry *model.OrderStatusUpdate) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to append order status update", err, map[string]interface{}{
			"order_id": entry.OrderID,
		})
		return err
	}
	return nil
}

func redeemCoupon(tx *gorm.DB, code string) error {
	result := tx.Model(&model.Coupon{}).
		Where("code = ? AND is_active = ? AND (usage_limit = 0 OR used_count < usage_limit)", code, true).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponUnavailable
	}
	return nil
}
