// Package cart はセッションごとのショッピングカートを管理する。
//
// カートはクライアント側だけが持つ状態で、サーバーには注文確定時に
// 明細の一覧だけが送られる。変更のたびにSlotへ同期的に書き戻す（write-through）。
package cart

import (
	"sync"

	"cakedelight/internal/domain/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store はカート本体。セッション開始時に1つ作り、使う側へ渡す。
type Store struct {
	mu       sync.Mutex
	lines    []model.CartLine
	slot     Slot
	key      string
	notifier Notifier
	logger   *zap.Logger
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKey は保存キーを変える（既定は StorageKey）。
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New はSlotから前回のカートを読み込んでStoreを作る。
// 無い・読めない・壊れている場合は空のカートで始める（エラーは返さない）。
func New(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:     slot,
		key:      StorageKey,
		notifier: discardNotifier{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lines = s.load()
	return s
}

func (s *Store) load() []model.CartLine {
	if s.slot == nil {
		return []model.CartLine{}
	}

	data, found, err := s.slot.Read(s.key)
	if err != nil {
		s.logger.Warn("cart slot read failed, starting empty", zap.String("key", s.key), zap.Error(err))
		return []model.CartLine{}
	}
	if !found || len(data) == 0 {
		return []model.CartLine{}
	}

	lines, err := Decode(data)
	if err != nil {
		s.logger.Warn("persisted cart is malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return []model.CartLine{}
	}
	return lines
}

// persist は現在のカート全体を書き戻す。mu を持ったまま呼ぶこと。
func (s *Store) persist() {
	if s.slot == nil {
		return
	}
	data, err := Encode(s.lines)
	if err != nil {
		s.logger.Error("cart encode failed", zap.Error(err))
		return
	}
	if err := s.slot.Write(s.key, data); err != nil {
		s.logger.Error("cart slot write failed", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddToCart は商品を1つ追加する。既にあれば数量+1、無ければ末尾に追加。
func (s *Store) AddToCart(p model.Product) {
	s.mu.Lock()
	ev := Event{ProductID: p.ID, ProductName: p.Name}
	if i := s.indexOf(p.ID); i >= 0 {
		s.lines[i].Quantity++
		ev.Kind = EventIncremented
	} else {
		s.lines = append(s.lines, model.CartLine{Product: p, Quantity: 1})
		ev.Kind = EventAdded
	}
	s.persist()
	s.mu.Unlock()

	s.notifier.Notify(ev)
}

// RemoveFromCart は明細を削除する。無ければ何もしない。
func (s *Store) RemoveFromCart(productID string) {
	s.mu.Lock()
	removed, ok := s.remove(productID)
	s.persist()
	s.mu.Unlock()

	if ok {
		s.notifier.Notify(Event{Kind: EventRemoved, ProductID: removed.Product.ID, ProductName: removed.Product.Name})
	}
}

func (s *Store) remove(productID string) (model.CartLine, bool) {
	i := s.indexOf(productID)
	if i < 0 {
		return model.CartLine{}, false
	}
	removed := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return removed, true
}

// UpdateQuantity は数量を指定値にする（加算ではない）。
// 1未満なら RemoveFromCart と同じ。明細が無ければ何もしない。
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity < 1 {
		s.RemoveFromCart(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		s.lines[i].Quantity = quantity
	}
	s.persist()
}

// ClearCart はカートを空にする。空でも通知する。
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.lines = []model.CartLine{}
	s.persist()
	s.mu.Unlock()

	s.notifier.Notify(Event{Kind: EventCleared})
}

// Lines は現在の明細のコピーを追加順で返す。
func (s *Store) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// TotalItems は数量の合計（読むたびに計算）。
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// Subtotal は単価×数量の合計（読むたびに計算）。
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, l := range s.lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}
