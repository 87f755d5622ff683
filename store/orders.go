package store

import (
	"context"
	"fmt"

	"tow-dispatch-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const newestFirst = "orders.created_at DESC, orders.id DESC"

// joined selects orders together with the owner's email.
func (s *Store) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.*, users.email AS user_email").
		Joins("JOIN users ON users.id = orders.user_id")
}

// CreateOrder inserts o and returns the stored row joined with its owner.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return nil, fmt.Errorf("insert order: %w", translate(err))
	}
	return s.OrderByID(ctx, o.ID)
}

func (s *Store) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.joined(ctx).Where("orders.id = ?", id).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

// ListOrders returns every order joined with its owner email, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.joined(ctx).Order(newestFirst).Find(&orders).Error; err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

// UpdateOrderStatus overwrites the status (last write wins) and appends an
// audit row. Setting the current status again is allowed.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus, changedBy uint) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Order
		if err := tx.Select("id", "status").First(&cur, id).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    id,
			FromStatus: cur.Status,
			ToStatus:   status,
			ChangedBy:  changedBy,
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.OrderByID(ctx, id)
}

// StatusHistory lists status changes of one order, oldest first.
func (s *Store) StatusHistory(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
