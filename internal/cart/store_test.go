package cart_test

import (
	"errors"
	"testing"

	"cakedelight/internal/cart"
	"cakedelight/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// テスト用のSlotと通知先
// =====================

type recordingSlot struct {
	data    map[string][]byte
	writes  int
	readErr error
}

func newRecordingSlot() *recordingSlot {
	return &recordingSlot{data: map[string][]byte{}}
}

func (s *recordingSlot) Read(key string) ([]byte, bool, error) {
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *recordingSlot) Write(key string, value []byte) error {
	s.writes++
	s.data[key] = append([]byte(nil), value...)
	return nil
}

type failingWriteSlot struct{ recordingSlot }

func (s *failingWriteSlot) Write(string, []byte) error {
	return errors.New("disk full")
}

type eventRecorder struct{ events []cart.Event }

func (r *eventRecorder) Notify(e cart.Event) { r.events = append(r.events, e) }

func (r *eventRecorder) kinds() []cart.EventKind {
	out := make([]cart.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func product(id string, price string) model.Product {
	return model.Product{ID: id, Name: "cake " + id, Price: decimal.RequireFromString(price)}
}

func quantities(lines []model.CartLine) map[string]int {
	out := map[string]int{}
	for _, l := range lines {
		out[l.Product.ID] = l.Quantity
	}
	return out
}

func ids(lines []model.CartLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Product.ID)
	}
	return out
}

// =====================
// 初期化
// =====================

func TestStore_New_EmptyWithoutPersistedData(t *testing.T) {
	s := cart.New(newRecordingSlot())

	assert.Equal(t, 0, s.TotalItems())
	assert.True(t, s.Subtotal().IsZero())
	assert.Empty(t, s.Lines())
}

func TestStore_New_MalformedDataFallsBackToEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":      "{{{",
		"object":        `{"product":{"id":"a"},"quantity":1}`,
		"null":          "null",
		"zero quantity": `[{"product":{"id":"a","price":"1"},"quantity":0}]`,
		"empty id":      `[{"product":{"id":"","price":"1"},"quantity":1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			slot := newRecordingSlot()
			slot.data[cart.StorageKey] = []byte(raw)

			var s *cart.Store
			require.NotPanics(t, func() { s = cart.New(slot) })
			assert.Empty(t, s.Lines())
			assert.Equal(t, 0, s.TotalItems())
		})
	}
}

func TestStore_New_ReadErrorFallsBackToEmpty(t *testing.T) {
	slot := newRecordingSlot()
	slot.readErr = errors.New("permission denied")

	s := cart.New(slot)
	assert.Empty(t, s.Lines())
}

func TestStore_New_NilSlot(t *testing.T) {
	s := cart.New(nil)
	s.AddToCart(product("a", "1.00"))
	assert.Equal(t, 1, s.TotalItems())
}

func TestStore_New_RestoresPersistedCart(t *testing.T) {
	slot := newRecordingSlot()
	first := cart.New(slot)
	first.AddToCart(product("p1", "3.25"))
	first.AddToCart(product("p1", "3.25"))
	first.AddToCart(product("p2", "1.50"))

	second := cart.New(slot)
	assert.Equal(t, []string{"p1", "p2"}, ids(second.Lines()))
	assert.Equal(t, map[string]int{"p1": 2, "p2": 1}, quantities(second.Lines()))
	assert.True(t, decimal.RequireFromString("8.00").Equal(second.Subtotal()))
}

func TestStore_WithKey(t *testing.T) {
	slot := newRecordingSlot()
	s := cart.New(slot, cart.WithKey("session-42"))
	s.AddToCart(product("a", "1"))

	_, ok := slot.data["session-42"]
	assert.True(t, ok)
	_, ok = slot.data[cart.StorageKey]
	assert.False(t, ok)
}

// =====================
// AddToCart
// =====================

func TestStore_AddToCart_MergesSameProduct(t *testing.T) {
	s := cart.New(newRecordingSlot())
	p := product("a", "2.00")

	for i := 0; i < 5; i++ {
		s.AddToCart(p)
	}

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestStore_AddToCart_PreservesFirstAddOrder(t *testing.T) {
	s := cart.New(newRecordingSlot())
	s.AddToCart(product("c", "1"))
	s.AddToCart(product("a", "1"))
	s.AddToCart(product("b", "1"))
	s.AddToCart(product("c", "1"))
	s.UpdateQuantity("a", 7)

	assert.Equal(t, []string{"c", "a", "b"}, ids(s.Lines()))
}

func TestStore_AddToCart_NotifiesAddedThenIncremented(t *testing.T) {
	rec := &eventRecorder{}
	s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))

	s.AddToCart(product("a", "1"))
	s.AddToCart(product("a", "1"))

	assert.Equal(t, []cart.EventKind{cart.EventAdded, cart.EventIncremented}, rec.kinds())
	assert.Equal(t, "a", rec.events[1].ProductID)
}

// =====================
// RemoveFromCart
// =====================

func TestStore_RemoveFromCart_Idempotent(t *testing.T) {
	rec := &eventRecorder{}
	s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))
	s.AddToCart(product("a", "1"))
	s.AddToCart(product("b", "1"))

	s.RemoveFromCart("a")
	after := s.Lines()
	require.NotPanics(t, func() { s.RemoveFromCart("a") })

	assert.Equal(t, after, s.Lines())
	assert.Equal(t, []cart.EventKind{cart.EventAdded, cart.EventAdded, cart.EventRemoved}, rec.kinds())
}

func TestStore_RemoveFromCart_UnknownIsNoop(t *testing.T) {
	rec := &eventRecorder{}
	s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))
	s.AddToCart(product("a", "1"))

	s.RemoveFromCart("zzz")

	assert.Equal(t, []string{"a"}, ids(s.Lines()))
	assert.Equal(t, []cart.EventKind{cart.EventAdded}, rec.kinds())
}

// =====================
// UpdateQuantity
// =====================

func TestStore_UpdateQuantity_FloorRemovesLine(t *testing.T) {
	for _, q := range []int{0, -5} {
		rec := &eventRecorder{}
		s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))
		s.AddToCart(product("a", "1"))
		s.AddToCart(product("b", "1"))

		s.UpdateQuantity("a", q)

		assert.Equal(t, []string{"b"}, ids(s.Lines()), "quantity %d", q)
		assert.Equal(t, cart.EventRemoved, rec.events[len(rec.events)-1].Kind)
	}
}

func TestStore_UpdateQuantity_FloorOnUnknownIsNoop(t *testing.T) {
	rec := &eventRecorder{}
	s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))

	s.UpdateQuantity("missing", 0)

	assert.Empty(t, s.Lines())
	assert.Empty(t, rec.events)
}

func TestStore_UpdateQuantity_SetsAbsoluteValue(t *testing.T) {
	s := cart.New(newRecordingSlot())
	s.AddToCart(product("a", "1"))
	s.AddToCart(product("a", "1"))

	s.UpdateQuantity("a", 9)

	assert.Equal(t, map[string]int{"a": 9}, quantities(s.Lines()))
}

func TestStore_UpdateQuantity_UnknownDoesNotCreateLine(t *testing.T) {
	s := cart.New(newRecordingSlot())
	s.UpdateQuantity("ghost", 3)
	assert.Empty(t, s.Lines())
}

// =====================
// ClearCart
// =====================

func TestStore_ClearCart_NotifiesEvenWhenEmpty(t *testing.T) {
	rec := &eventRecorder{}
	s := cart.New(newRecordingSlot(), cart.WithNotifier(rec))

	s.ClearCart()

	assert.Equal(t, []cart.EventKind{cart.EventCleared}, rec.kinds())
}

// =====================
// 永続化・派生値
// =====================

func TestStore_WritesThroughOnEveryMutation(t *testing.T) {
	slot := newRecordingSlot()
	s := cart.New(slot)

	s.AddToCart(product("a", "1"))
	s.AddToCart(product("a", "1"))
	s.UpdateQuantity("a", 4)
	s.RemoveFromCart("a")
	s.ClearCart()

	assert.Equal(t, 5, slot.writes)

	s.AddToCart(product("b", "2"))
	persisted, err := cart.Decode(slot.data[cart.StorageKey])
	require.NoError(t, err)
	assert.Equal(t, s.Lines(), persisted)
}

func TestStore_WriteFailureDoesNotFailOperation(t *testing.T) {
	slot := &failingWriteSlot{recordingSlot: *newRecordingSlot()}
	s := cart.New(slot)

	require.NotPanics(t, func() { s.AddToCart(product("a", "1")) })
	assert.Equal(t, 1, s.TotalItems())
}

func TestStore_DerivedValuesTrackMutations(t *testing.T) {
	s := cart.New(newRecordingSlot())
	s.AddToCart(product("a", "1.10"))
	s.AddToCart(product("b", "0.45"))
	s.UpdateQuantity("b", 3)
	s.AddToCart(product("a", "1.10"))

	want := decimal.Zero
	items := 0
	for _, l := range s.Lines() {
		want = want.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items += l.Quantity
	}
	assert.Equal(t, items, s.TotalItems())
	assert.True(t, want.Equal(s.Subtotal()))
	assert.True(t, decimal.RequireFromString("3.55").Equal(s.Subtotal()))
}

func TestStore_ConcreteScenario(t *testing.T) {
	s := cart.New(newRecordingSlot())
	a := product("A", "10.00")
	b := product("B", "5.50")

	s.AddToCart(a)
	s.AddToCart(a)
	s.AddToCart(b)

	assert.Equal(t, []string{"A", "B"}, ids(s.Lines()))
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, quantities(s.Lines()))
	assert.Equal(t, 3, s.TotalItems())
	assert.Equal(t, "25.5", s.Subtotal().String())

	s.UpdateQuantity("A", 1)
	assert.Equal(t, "15.5", s.Subtotal().String())

	s.ClearCart()
	assert.Equal(t, 0, s.TotalItems())
	assert.Empty(t, s.Lines())
}

func TestStore_LinesReturnsCopy(t *testing.T) {
	s := cart.New(newRecordingSlot())
	s.AddToCart(product("a", "1"))

	lines := s.Lines()
	lines[0].Quantity = 100

	assert.Equal(t, 1, s.TotalItems())
}
