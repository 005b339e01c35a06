package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 在庫がこれ以下なら「残りわずか」
const LowStockThreshold int64 = 5

type AdminOrderUsecase struct {
	tx  repo.TransactionManager
	log *zap.Logger
}

// DI
func NewAdminOrderUsecase(tx repo.TransactionManager, log *zap.Logger) *AdminOrderUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminOrderUsecase{tx: tx, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 許可する遷移
var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending: {model.OrderStatusPaid, model.OrderStatusCanceled},
	model.OrderStatusPaid:    {model.OrderStatusShipped, model.OrderStatusCanceled},
}

func canTransition(from, to model.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		switch model.OrderStatus(f.Status) {
		case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusCanceled:
		default:
			return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	out := AdminOrderListOutput{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out.Total = total
		out.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新（CANCELED なら在庫戻し)
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID string, orderID string, in AdminUpdateOrderStatusInput) error {
	if actorID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	switch newStatus {
	case model.OrderStatusPending, model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusCanceled:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		if !canTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, "cannot change "+strings.ToLower(string(o.Status))+" order to "+string(newStatus))
		}

		// 先に状態を進める。取れなかった側は在庫を戻さない
		if err := r.Orders().UpdateStatus(ctx, orderID, o.Status, newStatus); err != nil {
			if errors.Is(err, repo.ErrStatusConflict) {
				return NewHTTPError(http.StatusConflict, "order status changed")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if newStatus == model.OrderStatusCanceled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(newStatus)),
		zap.String("actor", actorID),
	)
	return nil
}

type LowStockItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int64  `json:"stock"`
}

type DashboardStats struct {
	OrderCount    int64            `json:"order_count"`
	Revenue       decimal.Decimal  `json:"revenue"`
	ProductCount  int64            `json:"product_count"`
	CountByStatus map[string]int64 `json:"count_by_status"`
	LowStock      []LowStockItem   `json:"low_stock"`
}

// 管理画面ダッシュボード
func (u *AdminOrderUsecase) Stats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		s, err := r.Orders().Stats(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		count, err := r.Products().CountActive(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		low, err := r.Products().ListLowStock(ctx, LowStockThreshold)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = DashboardStats{
			OrderCount:    s.OrderCount,
			Revenue:       s.Revenue,
			ProductCount:  count,
			CountByStatus: make(map[string]int64, len(s.CountByStatus)),
			LowStock:      make([]LowStockItem, 0, len(low)),
		}
		for st, n := range s.CountByStatus {
			out.CountByStatus[string(st)] = n
		}
		for _, p := range low {
			out.LowStock = append(out.LowStock, LowStockItem{ID: p.ID, Name: p.Name, Stock: p.Stock})
		}
		return nil
	})
	if err != nil {
		return DashboardStats{}, err
	}
	return out, nil
}

// ParseDateTimeRFC3339 は期間パラメータ用。空なら nil。
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
