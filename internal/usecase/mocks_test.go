package usecase_test

import (
	"context"
	"strings"
	"testing"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn repo.TxFunc) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) error {
	return m.Called(ctx, orderID, from, to).Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID string, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Stats(ctx context.Context) (repo.OrderStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(repo.OrderStats)
	return s, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID string, newStock int64) error {
	return m.Called(ctx, productID, newStock).Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, productID string, qty int64) error {
	return m.Called(ctx, productID, qty).Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]string)
	return cats, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepoMock) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderPlaced(ctx context.Context, o model.Order, items []model.OrderItem) error {
	return m.Called(ctx, o, items).Error(0)
}

type fixedID string

func (f fixedID) NewID() string { return string(f) }

// =====================
// Helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

// Tx付きのモック一式
type txFixture struct {
	tx        *TxManagerMock
	orders    *OrderRepoMock
	items     *OrderItemRepoMock
	inventory *InventoryRepoMock
	products  *ProductRepoMock
}

func newTxFixture() txFixture {
	f := txFixture{
		tx:        new(TxManagerMock),
		orders:    new(OrderRepoMock),
		items:     new(OrderItemRepoMock),
		inventory: new(InventoryRepoMock),
		products:  new(ProductRepoMock),
	}
	f.tx.Repos = &TxReposMock{orders: f.orders, orderItems: f.items, inventory: f.inventory, products: f.products}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	return f
}
