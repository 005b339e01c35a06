package repository

import (
	"context"
	"errors"
	"time"

	"cakedelight/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 更新時に状態が from から変わっていた
var ErrStatusConflict = errors.New("order status changed")

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID string
	From   *time.Time
	To     *time.Time
}

// 管理画面の集計
type OrderStats struct {
	OrderCount    int64
	Revenue       decimal.Decimal
	CountByStatus map[model.OrderStatus]int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) error
	//from のときだけ to にする。変わっていたら ErrStatusConflict
	UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Stats(ctx context.Context) (OrderStats, error)
}
