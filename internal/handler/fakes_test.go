package handler_test

import (
	"context"
	"sort"
	"sync"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// メモリ上のリポジトリ（ハンドラーからusecaseまで通すため）
// =====================

type memProducts struct {
	mu    sync.Mutex
	items map[string]model.Product
}

func newMemProducts(ps ...model.Product) *memProducts {
	m := &memProducts{items: map[string]model.Product{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.items {
		if !p.IsActive {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) ListCategories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range m.items {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) CountActive(ctx context.Context) (int64, error) {
	_, n, err := m.ListPublic(ctx, repo.ProductListQuery{})
	return n, err
}

func (m *memProducts) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.items {
		if p.IsActive && p.Stock <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = p
	return p, nil
}

func (m *memProducts) Update(ctx context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.items[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.VendorID = old.VendorID
	m.items[p.ID] = p
	return nil
}

func (m *memProducts) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memProducts) SetStock(ctx context.Context, id string, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.Stock = n
	m.items[id] = p
	return nil
}

func (m *memProducts) DecreaseStockIfEnough(ctx context.Context, id string, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	m.items[id] = p
	return true, nil
}

func (m *memProducts) IncreaseStock(ctx context.Context, id string, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.Stock += qty
	m.items[id] = p
	return nil
}

func (m *memProducts) stock(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Stock
}

type memOrders struct {
	mu     sync.Mutex
	orders []model.Order
	items  map[string][]model.OrderItem
}

func newMemOrders() *memOrders {
	return &memOrders{items: map[string][]model.OrderItem{}}
}

func (m *memOrders) FindByID(ctx context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (m *memOrders) ListByUserID(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) Create(ctx context.Context, o model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
	return nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id && m.orders[i].Status == from {
			m.orders[i].Status = to
			return nil
		}
	}
	return repo.ErrStatusConflict
}

func (m *memOrders) FindByIdempotencyKey(ctx context.Context, userID, key string) (model.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m *memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) Stats(ctx context.Context) (repo.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := repo.OrderStats{Revenue: decimal.Zero, CountByStatus: map[model.OrderStatus]int64{}}
	for _, o := range m.orders {
		s.OrderCount++
		s.CountByStatus[o.Status]++
		if o.Status != model.OrderStatusCanceled {
			s.Revenue = s.Revenue.Add(o.TotalPrice)
		}
	}
	return s, nil
}

func (m *memOrders) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
	}
	m.items[orderID] = append(m.items[orderID], items...)
	return nil
}

func (m *memOrders) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderItem(nil), m.items[orderID]...), nil
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// memTx はロールバックしない（テストでは失敗時の巻き戻しを見ない）
type memTx struct {
	products *memProducts
	orders   *memOrders
}

func (t *memTx) WithinTx(ctx context.Context, fn repo.TxFunc) error { return fn(t) }

func (t *memTx) Orders() repo.OrderRepository         { return t.orders }
func (t *memTx) OrderItems() repo.OrderItemRepository { return t.orders }
func (t *memTx) Inventory() repo.InventoryRepository  { return t.products }
func (t *memTx) Products() repo.ProductRepository     { return t.products }

type memUsers struct {
	users map[string]*model.User
}

func (m *memUsers) Create(ctx context.Context, u *model.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (m *memUsers) Update(ctx context.Context, u *model.User) error {
	m.users[u.ID] = u
	return nil
}

var (
	_ repo.ProductRepository   = (*memProducts)(nil)
	_ repo.InventoryRepository = (*memProducts)(nil)
	_ repo.OrderRepository     = (*memOrders)(nil)
	_ repo.OrderItemRepository = (*memOrders)(nil)
	_ repo.TransactionManager  = (*memTx)(nil)
	_ repo.UserRepository      = (*memUsers)(nil)
)
