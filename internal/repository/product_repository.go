package repository

import (
	"cakedelight/internal/domain/model"
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	// 空でなければそのベンダーの商品だけ（非公開も含む）
	VendorID string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	ListCategories(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	CountActive(ctx context.Context) (int64, error)
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id string) error
}
