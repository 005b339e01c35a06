package usecase_test

import (
	"context"
	"testing"

	"cakedelight/internal/domain/model"
	repo "cakedelight/internal/repository"
	"cakedelight/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// List tests
// =====================

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), nil)

	out, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assert.Empty(t, out.Items)
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidStatus(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), nil)

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "LOST"})
	assertErrContains(t, err, "invalid status")
}

func TestAdminOrderUsecase_List_Success(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)

	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "PAID"}
	f.orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{{ID: "o1", Status: model.OrderStatusPaid}}, int64(7), nil)
	f.items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{}, nil)

	out, err := uc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "PAID", out.Items[0].Status)
}

// =====================
// UpdateStatus tests
// =====================

func TestAdminOrderUsecase_UpdateStatus_Transitions(t *testing.T) {
	cases := []struct {
		from model.OrderStatus
		to   string
		ok   bool
	}{
		{model.OrderStatusPending, "PAID", true},
		{model.OrderStatusPaid, "SHIPPED", true},
		{model.OrderStatusPending, "SHIPPED", false},
		{model.OrderStatusShipped, "CANCELED", false},
		{model.OrderStatusCanceled, "PAID", false},
		{model.OrderStatusPaid, "PENDING", false},
	}

	for _, c := range cases {
		f := newTxFixture()
		uc := usecase.NewAdminOrderUsecase(f.tx, nil)
		f.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", Status: c.from}, nil)
		f.orders.On("UpdateStatus", mock.Anything, "o1", c.from, model.OrderStatus(c.to)).Return(nil)

		err := uc.UpdateStatus(context.Background(), "admin", "o1", usecase.AdminUpdateOrderStatusInput{Status: c.to})
		if c.ok {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
			f.orders.AssertCalled(t, "UpdateStatus", mock.Anything, "o1", c.from, model.OrderStatus(c.to))
		} else {
			assertErrContains(t, err, "cannot change")
			f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	}
}

func TestAdminOrderUsecase_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)
	f.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", Status: model.OrderStatusPaid}, nil)

	err := uc.UpdateStatus(context.Background(), "admin", "o1", usecase.AdminUpdateOrderStatusInput{Status: "PAID"})
	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)

	f.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", Status: model.OrderStatusPaid}, nil)
	f.items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
	}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, "a", int64(2)).Return(nil).Once()
	f.inventory.On("IncreaseStock", mock.Anything, "b", int64(1)).Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "o1", model.OrderStatusPaid, model.OrderStatusCanceled).Return(nil)

	err := uc.UpdateStatus(context.Background(), "admin", "o1", usecase.AdminUpdateOrderStatusInput{Status: "CANCELED"})
	require.NoError(t, err)
	f.inventory.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_ConcurrentCancelRestoresOnce(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)

	// 2つの管理者が同じ PAID 注文を見てキャンセルする。状態を取れるのは1回だけ
	f.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", Status: model.OrderStatusPaid}, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1", model.OrderStatusPaid, model.OrderStatusCanceled).Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "o1", model.OrderStatusPaid, model.OrderStatusCanceled).Return(repo.ErrStatusConflict).Once()
	f.items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{{ProductID: "a", Quantity: 2}}, nil)
	f.inventory.On("IncreaseStock", mock.Anything, "a", int64(2)).Return(nil)

	in := usecase.AdminUpdateOrderStatusInput{Status: "CANCELED"}
	require.NoError(t, uc.UpdateStatus(context.Background(), "admin-1", "o1", in))

	err := uc.UpdateStatus(context.Background(), "admin-2", "o1", in)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 409, he.Status)

	f.inventory.AssertNumberOfCalls(t, "IncreaseStock", 1)
	f.items.AssertNumberOfCalls(t, "ListByOrderID", 1)
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)
	f.orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)

	err := uc.UpdateStatus(context.Background(), "admin", "missing", usecase.AdminUpdateOrderStatusInput{Status: "PAID"})
	assertErrContains(t, err, "not found")
}

func TestAdminOrderUsecase_UpdateStatus_InvalidInput(t *testing.T) {
	uc := usecase.NewAdminOrderUsecase(new(TxManagerMock), nil)

	assertErrContains(t, uc.UpdateStatus(context.Background(), "", "o1", usecase.AdminUpdateOrderStatusInput{Status: "PAID"}), "unauthorized")
	assertErrContains(t, uc.UpdateStatus(context.Background(), "admin", "o1", usecase.AdminUpdateOrderStatusInput{Status: "DELIVERED"}), "invalid status")
}

// =====================
// Stats
// =====================

func TestAdminOrderUsecase_Stats(t *testing.T) {
	f := newTxFixture()
	uc := usecase.NewAdminOrderUsecase(f.tx, nil)

	f.orders.On("Stats", mock.Anything).Return(repo.OrderStats{
		OrderCount: 4,
		Revenue:    dec("120.50"),
		CountByStatus: map[model.OrderStatus]int64{
			model.OrderStatusPaid:     3,
			model.OrderStatusCanceled: 1,
		},
	}, nil)
	f.products.On("CountActive", mock.Anything).Return(int64(12), nil)
	f.products.On("ListLowStock", mock.Anything, usecase.LowStockThreshold).Return([]model.Product{
		{ID: "a", Name: "Opera Cake", Stock: 2},
	}, nil)

	s, err := uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.OrderCount)
	assert.Equal(t, "120.50", s.Revenue.StringFixed(2))
	assert.Equal(t, int64(12), s.ProductCount)
	assert.Equal(t, int64(1), s.CountByStatus["CANCELED"])
	require.Len(t, s.LowStock, 1)
	assert.Equal(t, "Opera Cake", s.LowStock[0].Name)
}

func TestParseDateTimeRFC3339(t *testing.T) {
	tm, ok := usecase.ParseDateTimeRFC3339("")
	assert.True(t, ok)
	assert.Nil(t, tm)

	tm, ok = usecase.ParseDateTimeRFC3339("2026-10-01T00:00:00Z")
	assert.True(t, ok)
	require.NotNil(t, tm)
	assert.Equal(t, 2026, tm.Year())

	_, ok = usecase.ParseDateTimeRFC3339("yesterday")
	assert.False(t, ok)
}
