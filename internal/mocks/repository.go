// Package mocks holds testify mocks of the repository interfaces and pgx.Tx
// shared by the unit tests of the packages above the repository layer.
package mocks

import (
	"context"
	"time"

	"travel-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// CatalogRepository is a mock implementation of repository.CatalogRepository.
type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) GetAttraction(ctx context.Context, id int64) (*model.Attraction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attraction), args.Error(1)
}

func (m *CatalogRepository) GetHotelRoom(ctx context.Context, id int64) (*model.HotelRoom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.HotelRoom), args.Error(1)
}

func (m *CatalogRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *CatalogRepository) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *CatalogRepository) DecrementStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) (bool, error) {
	args := m.Called(ctx, tx, itemType, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *CatalogRepository) RestoreStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) error {
	args := m.Called(ctx, tx, itemType, id, qty)
	return args.Error(0)
}

func (m *CatalogRepository) AddSales(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	args := m.Called(ctx, tx, productID, qty)
	return args.Error(0)
}

// CartRepository is a mock implementation of repository.CartRepository.
type CartRepository struct {
	mock.Mock
}

func (m *CartRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.CartItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *CartRepository) GetByID(ctx context.Context, id int64) (*model.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *CartRepository) GetByUserAndItem(ctx context.Context, userID int64, itemType model.ItemType, itemID int64) (*model.CartItem, error) {
	args := m.Called(ctx, userID, itemType, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *CartRepository) ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *CartRepository) Upsert(ctx context.Context, item *model.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CartRepository) UpdateQuantity(ctx context.Context, userID, id int64, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, userID, id, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *CartRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *CartRepository) DeleteByIDs(ctx context.Context, tx pgx.Tx, userID int64, ids []int64) (int64, error) {
	args := m.Called(ctx, tx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

// CouponRepository is a mock implementation of repository.CouponRepository.
type CouponRepository struct {
	mock.Mock
}

func (m *CouponRepository) GetUserCoupon(ctx context.Context, id int64) (*model.UserCoupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserCoupon), args.Error(1)
}

func (m *CouponRepository) GetCoupon(ctx context.Context, id int64) (*model.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *CouponRepository) GetCoupons(ctx context.Context, ids []int64) ([]model.Coupon, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *CouponRepository) ListUserCoupons(ctx context.Context, userID int64, status *model.UserCouponStatus) ([]model.UserCoupon, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserCoupon), args.Error(1)
}

func (m *CouponRepository) MarkUsed(ctx context.Context, tx pgx.Tx, userCouponID, orderID int64, usedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, userCouponID, orderID, usedAt)
	return args.Bool(0), args.Error(1)
}

func (m *CouponRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CouponRepository) IssueBatch(ctx context.Context, grants []model.CouponGrant) (int64, error) {
	args := m.Called(ctx, grants)
	return args.Get(0).(int64), args.Error(1)
}

// UserRepository is a mock implementation of repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) ConsumeFirstOrder(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	args := m.Called(ctx, tx, userID)
	return args.Bool(0), args.Error(1)
}

// OrderRepository is a mock implementation of repository.OrderRepository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a Tx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *OrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) GetByOrderNoForUpdate(ctx context.Context, tx pgx.Tx, orderNo string) (*model.Order, error) {
	args := m.Called(ctx, tx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *OrderRepository) GetItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *OrderRepository) GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	args := m.Called(ctx, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]model.OrderItem), args.Error(1)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID int64, status *model.OrderStatus, limit, offset int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepository) CountByStatus(ctx context.Context, userID int64) (map[model.OrderStatus]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.OrderStatus]int64), args.Error(1)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id int64, payType, payNo string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, id, payType, payNo, paidAt)
	return args.Bool(0), args.Error(1)
}

// OutboxRepository is a mock implementation of repository.OutboxRepository.
type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Insert(ctx context.Context, tx pgx.Tx, event *model.OutboxEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutboxEvent), args.Error(1)
}

func (m *OutboxRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	args := m.Called(ctx, id, publishedAt)
	return args.Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// Tx is a minimal mock implementation of pgx.Tx. Only Commit and Rollback
// are recorded.
type Tx struct {
	mock.Mock
}

func (m *Tx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Tx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *Tx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *Tx) Conn() *pgx.Conn                                               { return nil }
