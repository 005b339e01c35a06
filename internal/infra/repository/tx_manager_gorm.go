package repository

import (
	"context"

	repo "cakedelight/internal/repository"

	"gorm.io/gorm"
)

// txReposGorm は同じ *gorm.DB(tx) からリポジトリを作る
type txReposGorm struct {
	tx *gorm.DB
}

func (r txReposGorm) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r txReposGorm) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r txReposGorm) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r txReposGorm) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }

// 在庫の減算は条件付きUPDATEなので既定の分離レベルで足りる
type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn repo.TxFunc) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txReposGorm{tx: tx})
	})
}

var _ repo.TransactionManager = (*TxManagerGorm)(nil)
