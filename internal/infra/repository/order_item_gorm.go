package repository

import (
	"context"
	"fmt"

	"cakedelight/internal/domain/model"

	"gorm.io/gorm"
)

// 1回のINSERTに入れる明細数
const orderItemBatchSize = 100

// 注文明細（名前・単価は注文時点のスナップショット）
type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		rows[i] = it
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, orderItemBatchSize).Error; err != nil {
		return fmt.Errorf("create order items for %s: %w", orderID, err)
	}
	return nil
}

// 追加順（id昇順）で返す
func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	items := []model.OrderItem{}
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, fmt.Errorf("list order items for %s: %w", orderID, err)
	}
	return items, nil
}
