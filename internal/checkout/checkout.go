// Package checkout はカートの内容を確定して注文として送信する。
//
// 金額の計算はサーバーと同じ model.PriceOrder を使う。支払いはシミュレーションで、
// 送信が成功したときだけカートを空にする。
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cakedelight/internal/cart"
	"cakedelight/internal/domain/model"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PendingKey は送信中の注文（指紋と冪等キー）を残すスロットのキー
const PendingKey = "checkout_pending"

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrIncompleteAddress    = errors.New("shipping address is incomplete")
)

// Summary は確認画面に出す金額
type Summary = model.PriceBreakdown

// Quote は小計から税・送料・合計を出す。
func Quote(subtotal decimal.Decimal) Summary {
	return model.PriceOrder(subtotal)
}

// サーバーに送る確定済みの明細
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type OrderRequest struct {
	Items           []OrderItem           `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   model.PaymentMethod   `json:"payment_method"`
	// ヘッダーで送る
	IdempotencyKey string `json:"-"`
}

// サーバーが受け付けた注文
type Confirmation struct {
	OrderID string          `json:"id"`
	Status  string          `json:"status"`
	Total   decimal.Decimal `json:"total_price"`
}

// OrderSubmitter は注文をサーバーへ送る（apiclient.Client が実装）
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (Confirmation, error)
}

// Cart は確定に必要なカートの操作だけ（cart.Store が満たす）
type Cart interface {
	Lines() []model.CartLine
	Subtotal() decimal.Decimal
	ClearCart()
}

type Input struct {
	Shipping      model.ShippingAddress
	PaymentMethod model.PaymentMethod
}

type Receipt struct {
	Confirmation Confirmation
	Summary      Summary
	Items        []model.CartLine
}

type Service struct {
	cart      Cart
	submitter OrderSubmitter
	newKey    func() string
	log       *zap.Logger

	// 失敗した送信と同じ内容ならキーを使い回す（タイムアウト後の二重注文防止）
	mu          sync.Mutex
	pendingFP   string
	pendingKey  string
	pendingSlot cart.Slot
	slotKey     string
}

type ServiceOption func(*Service)

// WithPendingSlot は送信中のキーをスロットに残す。次の起動でも同じキーで再送できる
func WithPendingSlot(slot cart.Slot, key string) ServiceOption {
	return func(s *Service) {
		s.pendingSlot = slot
		s.slotKey = key
	}
}

// DI
func NewService(c Cart, submitter OrderSubmitter, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{cart: c, submitter: submitter, newKey: uuid.NewString, log: log, slotKey: PendingKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout は今のカートで注文を確定する。
// 失敗したときカートはそのまま残る。
func (s *Service) Checkout(ctx context.Context, in Input) (Receipt, error) {
	if !in.PaymentMethod.Valid() {
		return Receipt{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, in.PaymentMethod)
	}
	if !in.Shipping.Complete() {
		return Receipt{}, ErrIncompleteAddress
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	req := OrderRequest{
		Items:           make([]OrderItem, 0, len(lines)),
		ShippingAddress: in.Shipping,
		PaymentMethod:   in.PaymentMethod,
	}
	for _, l := range lines {
		req.Items = append(req.Items, OrderItem{ProductID: l.Product.ID, Quantity: int64(l.Quantity)})
	}
	fp := fingerprint(req)
	req.IdempotencyKey = s.keyFor(fp)
	summary := Quote(s.cart.Subtotal())

	conf, err := s.submitter.SubmitOrder(ctx, req)
	if err != nil {
		s.log.Warn("order submission failed, cart kept",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int("lines", len(lines)),
			zap.Error(err),
		)
		return Receipt{}, fmt.Errorf("submit order: %w", err)
	}

	// サーバーの合計と見積もりがずれたら記録だけ残す（価格改定など）
	if !conf.Total.IsZero() && !conf.Total.Equal(summary.Total) {
		s.log.Info("server total differs from quote",
			zap.String("order_id", conf.OrderID),
			zap.String("quoted", summary.Total.StringFixed(2)),
			zap.String("charged", conf.Total.StringFixed(2)),
		)
	}

	s.mu.Lock()
	s.pendingFP, s.pendingKey = "", ""
	s.savePending()
	s.mu.Unlock()

	s.cart.ClearCart()
	return Receipt{Confirmation: conf, Summary: summary, Items: lines}, nil
}

func (s *Service) keyFor(fp string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadPending()
	if s.pendingKey == "" || s.pendingFP != fp {
		s.pendingFP, s.pendingKey = fp, s.newKey()
		s.savePending()
	}
	return s.pendingKey
}

type pendingSubmission struct {
	Fingerprint string `json:"fingerprint"`
	Key         string `json:"key"`
}

// mu を持った状態で呼ぶ
func (s *Service) loadPending() {
	if s.pendingSlot == nil {
		return
	}
	raw, found, err := s.pendingSlot.Read(s.slotKey)
	if err != nil {
		s.log.Warn("read pending checkout failed", zap.Error(err))
		return
	}
	if !found || len(raw) == 0 {
		return
	}
	var p pendingSubmission
	if err := json.Unmarshal(raw, &p); err != nil || p.Key == "" {
		s.log.Warn("ignoring malformed pending checkout", zap.String("key", s.slotKey), zap.Error(err))
		return
	}
	s.pendingFP, s.pendingKey = p.Fingerprint, p.Key
}

// 空なら空の値を書いて消す
func (s *Service) savePending() {
	if s.pendingSlot == nil {
		return
	}
	var raw []byte
	if s.pendingKey != "" {
		var err error
		raw, err = json.Marshal(pendingSubmission{Fingerprint: s.pendingFP, Key: s.pendingKey})
		if err != nil {
			s.log.Warn("encode pending checkout failed", zap.Error(err))
			return
		}
	}
	if err := s.pendingSlot.Write(s.slotKey, raw); err != nil {
		s.log.Warn("save pending checkout failed", zap.Error(err))
	}
}

func fingerprint(req OrderRequest) string {
	var b strings.Builder
	for _, it := range req.Items {
		fmt.Fprintf(&b, "%s*%d;", it.ProductID, it.Quantity)
	}
	a := req.ShippingAddress
	fmt.Fprintf(&b, "|%s|%s|%s|%s|%s|%s|%s", req.PaymentMethod, a.Name, a.Email, a.Line1, a.City, a.PostalCode, a.Phone)
	return b.String()
}
