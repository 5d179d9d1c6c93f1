package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(userID int64, orderNo string, status model.OrderStatus) *model.Order {
	return &model.Order{
		OrderNo:        orderNo,
		UserID:         userID,
		OrderType:      model.OrderTypeHotel,
		TotalAmount:    decimal.RequireFromString("840.00"),
		DiscountAmount: decimal.RequireFromString("40.00"),
		PayAmount:      decimal.RequireFromString("800.00"),
		Status:         status,
		ContactName:    "Li Lei",
		ContactPhone:   "13800000000",
	}
}

func insertOrder(t *testing.T, repo OrderRepository, order *model.Order, items ...model.OrderItem) {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	for i := range items {
		items[i].OrderID = order.ID
	}
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))
	order.Items = items
}

func TestOrderRepository_CreateAndRead(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	checkIn := model.NewDate(2026, time.May, 1)
	checkOut := model.NewDate(2026, time.May, 3)
	image := "room.jpg"

	order := newTestOrder(1, "ORD20260501120000AAAAAAAAAAAA", model.OrderStatusPendingPay)
	insertOrder(t, repo, order, model.OrderItem{
		ItemType:     model.ItemTypeHotelRoom,
		ItemID:       5,
		ItemName:     "Deluxe King",
		ItemImage:    &image,
		Quantity:     2,
		Price:        decimal.RequireFromString("420.00"),
		TotalPrice:   decimal.RequireFromString("840.00"),
		CheckInDate:  &checkIn,
		CheckOutDate: &checkOut,
	})

	assert.NotZero(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())
	assert.NotZero(t, order.Items[0].ID)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.OrderNo, got.OrderNo)
	assert.Equal(t, model.OrderStatusPendingPay, got.Status)
	assert.True(t, order.PayAmount.Equal(got.PayAmount))
	assert.Nil(t, got.PayTime)

	items, err := repo.GetItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Deluxe King", items[0].ItemName)
	require.NotNil(t, items[0].CheckInDate)
	assert.Equal(t, "2026-05-01", items[0].CheckInDate.String())
	assert.Equal(t, "2026-05-03", items[0].CheckOutDate.String())
	assert.Nil(t, items[0].UseDate)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepository_DuplicateOrderNo(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	insertOrder(t, repo, newTestOrder(1, "ORD-DUP", model.OrderStatusPendingPay))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = repo.CreateOrder(ctx, tx, newTestOrder(2, "ORD-DUP", model.OrderStatusPendingPay))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPersistenceFailure)

	var domainErr *model.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.True(t, domainErr.Retryable)
}

func TestOrderRepository_ListAndCount(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	statuses := []model.OrderStatus{
		model.OrderStatusPendingPay,
		model.OrderStatusPendingPay,
		model.OrderStatusPaid,
		model.OrderStatusCancelled,
	}
	for i, s := range statuses {
		insertOrder(t, repo, newTestOrder(1, "ORD-LIST-"+string(rune('A'+i)), s), model.OrderItem{
			ItemType: model.ItemTypeProduct, ItemID: int64(i + 1), ItemName: "Tea",
			Quantity: 1, Price: decimal.NewFromInt(1), TotalPrice: decimal.NewFromInt(1),
		})
	}
	insertOrder(t, repo, newTestOrder(2, "ORD-OTHER", model.OrderStatusPaid))

	pending := model.OrderStatusPendingPay
	tests := []struct {
		name          string
		status        *model.OrderStatus
		limit, offset int
		expectedLen   int
		expectedTotal int64
	}{
		{name: "All orders", limit: 10, expectedLen: 4, expectedTotal: 4},
		{name: "Paged", limit: 3, offset: 3, expectedLen: 1, expectedTotal: 4},
		{name: "By status", status: &pending, limit: 10, expectedLen: 2, expectedTotal: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, total, err := repo.ListByUser(ctx, 1, tt.status, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Len(t, orders, tt.expectedLen)
			assert.Equal(t, tt.expectedTotal, total)
		})
	}

	t.Run("items grouped by order", func(t *testing.T) {
		orders, _, err := repo.ListByUser(ctx, 1, nil, 10, 0)
		require.NoError(t, err)
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		byOrder, err := repo.GetItemsByOrderIDs(ctx, ids)
		require.NoError(t, err)
		assert.Len(t, byOrder, 4)
		for _, id := range ids {
			assert.Len(t, byOrder[id], 1)
		}
	})

	t.Run("counts by status", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[model.OrderStatusPendingPay])
		assert.Equal(t, int64(1), counts[model.OrderStatusPaid])
		assert.Equal(t, int64(1), counts[model.OrderStatusCancelled])
		assert.Zero(t, counts[model.OrderStatusRefunded])
	})
}

func TestOrderRepository_StatusUpdates(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewOrderRepository(pool, zerolog.Nop())
	ctx := context.Background()

	order := newTestOrder(1, "ORD-STATUS", model.OrderStatusPendingPay)
	insertOrder(t, repo, order)

	t.Run("stale transition is rejected", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		ok, err := repo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusPaid, model.OrderStatusRefunded)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mark paid once", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		locked, err := repo.GetByOrderNoForUpdate(ctx, tx, order.OrderNo)
		require.NoError(t, err)
		require.NotNil(t, locked)
		assert.Equal(t, order.ID, locked.ID)

		paidAt := time.Now().UTC().Truncate(time.Second)
		ok, err := repo.MarkPaid(ctx, tx, order.ID, "WECHAT", "PAY-1", paidAt)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkPaid(ctx, tx, order.ID, "WECHAT", "PAY-2", paidAt)
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, tx.Commit(ctx))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, got.Status)
		require.NotNil(t, got.PayNo)
		assert.Equal(t, "PAY-1", *got.PayNo)
		require.NotNil(t, got.PayTime)
		assert.True(t, paidAt.Equal(*got.PayTime))
	})

	t.Run("paid to refunded", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		ok, err := repo.UpdateStatus(ctx, tx, order.ID, model.OrderStatusPaid, model.OrderStatusRefunded)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, tx.Commit(ctx))
	})

	t.Run("unknown order number", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		o, err := repo.GetByOrderNoForUpdate(ctx, tx, "ORD-NONE")
		require.NoError(t, err)
		assert.Nil(t, o)
	})
}
