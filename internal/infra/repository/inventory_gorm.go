package repository

import (
	"context"
	"fmt"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"gorm.io/gorm"
)

// InventoryGormRepository は products.stock を直接更新する。
// 減算は「足りるときだけ」の条件付きUPDATEで、行ロックを取らずに売り越しを防ぐ。
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// stockを更新して、対象行が無ければ0を返す
func (r *InventoryGormRepository) updateStock(ctx context.Context, value interface{}, where string, args ...interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where(where, args...).
		Update("stock", value)
	if res.Error != nil {
		return 0, fmt.Errorf("update stock: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID string, newStock int64) error {
	n, err := r.updateStock(ctx, newStock, "id = ?", productID)
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 足りなければ false（エラーではない）
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error) {
	n, err := r.updateStock(ctx, gorm.Expr("stock - ?", qty), "id = ? AND stock >= ?", productID, qty)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// キャンセル時の戻し。商品が論理削除済みでも行は残っているので戻す
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID string, qty int64) error {
	res := r.db.WithContext(ctx).Unscoped().
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("restore stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
