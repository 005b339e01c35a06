package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// order.placed の送信にかける上限
const publishTimeout = 5 * time.Second

// 注文確定後のイベント送信（Kafkaなど）
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o model.Order, items []model.OrderItem) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	publisher EventPublisher
	idGen     IDGenerator
	log       *zap.Logger
}

// DI
func NewOrderUsecase(tx repo.TransactionManager, publisher EventPublisher, idGen IDGenerator, log *zap.Logger) *OrderUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderUsecase{tx: tx, publisher: publisher, idGen: idGen, log: log}
}

type PlaceOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type PlaceOrderInput struct {
	Items          []PlaceOrderItem
	Shipping       model.ShippingAddress
	PaymentMethod  model.PaymentMethod
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Tax             decimal.Decimal       `json:"tax"`
	Shipping        decimal.Decimal       `json:"shipping"`
	TotalPrice      decimal.Decimal       `json:"total_price"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

// 同じ商品IDの行はまとめる（最初に出た順）
func mergeOrderItems(items []PlaceOrderItem) ([]PlaceOrderItem, error) {
	merged := make([]PlaceOrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if it.Quantity < 1 {
			return nil, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
		if i, ok := index[id]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, PlaceOrderItem{ProductID: id, Quantity: it.Quantity})
	}
	return merged, nil
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if !in.PaymentMethod.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	if !in.Shipping.Complete() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid shipping_address")
	}
	lines, err := mergeOrderItems(in.Items)
	if err != nil {
		return OrderOutput{}, err
	}

	var (
		out      OrderOutput
		created  model.Order
		newItems []model.OrderItem
		replayed bool
	)

	//注文処理はトランザクション
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			replayed = true
			return nil
		}

		now := time.Now()
		orderItems := make([]model.OrderItem, 0, len(lines))
		subtotal := decimal.Zero

		for _, l := range lines {
			p, err := r.Products().FindByID(ctx, l.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			})
			subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(l.Quantity)))
		}

		price := model.PriceOrder(subtotal)

		// 現金は受け取りまでPENDING
		status := model.OrderStatusPaid
		if in.PaymentMethod == model.PaymentCash {
			status = model.OrderStatusPending
		}

		order := model.Order{
			ID:             u.idGen.NewID(),
			UserID:         userID,
			Status:         status,
			PaymentMethod:  in.PaymentMethod,
			Shipping:       in.Shipping,
			Subtotal:       price.Subtotal,
			Tax:            price.Tax,
			ShippingFee:    price.Shipping,
			TotalPrice:     price.Total,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			//同時に同じキーが入ったらそちらを返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2)
				replayed = true
				return nil
			}
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created = order
		newItems = orderItems
		out = toOrderOutput(order, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	// commit後に送る。失敗しても注文は成功扱い
	if !replayed && u.publisher != nil {
		// リクエストが切れても送り切る
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := u.publisher.PublishOrderPlaced(pubCtx, created, newItems); err != nil {
			u.log.Warn("publish order.placed failed",
				zap.String("order_id", created.ID),
				zap.Error(err),
			)
		}
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	if userID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		ShippingAddress: o.Shipping,
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.ShippingFee,
		TotalPrice:      o.TotalPrice,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
