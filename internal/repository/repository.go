package repository

import (
	"context"
	"time"

	"travel-checkout/internal/model"

	"github.com/jackc/pgx/v5"
)

// CatalogRepository defines data access for the purchasable catalog tables.
type CatalogRepository interface {
	// GetAttraction retrieves an attraction by ID. Returns nil when absent.
	GetAttraction(ctx context.Context, id int64) (*model.Attraction, error)

	// GetHotelRoom retrieves a hotel room type by ID. Returns nil when absent.
	GetHotelRoom(ctx context.Context, id int64) (*model.HotelRoom, error)

	// GetProduct retrieves a product by ID. Returns nil when absent.
	GetProduct(ctx context.Context, id int64) (*model.Product, error)

	// ListProducts retrieves active products with pagination support.
	ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error)

	// DecrementStock lowers the stock of an item by qty only if at least qty
	// remains. It reports false when the conditional update matched no row.
	DecrementStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) (bool, error)

	// RestoreStock adds qty back to the stock of an item.
	RestoreStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) error

	// AddSales increments the sales counter of a product.
	AddSales(ctx context.Context, tx pgx.Tx, productID int64, qty int) error
}

// CartRepository defines data access for cart entries.
type CartRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]model.CartItem, error)

	GetByID(ctx context.Context, id int64) (*model.CartItem, error)

	// GetByUserAndItem returns the user's entry for an item, or nil.
	GetByUserAndItem(ctx context.Context, userID int64, itemType model.ItemType, itemID int64) (*model.CartItem, error)

	ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error)

	// Upsert inserts the entry or adds its quantity to the existing entry for
	// the same (user, item type, item id). The stored row is written back.
	Upsert(ctx context.Context, item *model.CartItem) error

	// UpdateQuantity sets the quantity of one of the user's entries and returns
	// the stored row, or nil when the user has no entry with that id.
	UpdateQuantity(ctx context.Context, userID, id int64, quantity int) (*model.CartItem, error)

	// Delete removes one of the user's entries and reports whether it existed.
	Delete(ctx context.Context, userID, id int64) (bool, error)

	// DeleteByIDs removes the user's entries within the transaction and
	// returns the number of rows deleted.
	DeleteByIDs(ctx context.Context, tx pgx.Tx, userID int64, ids []int64) (int64, error)
}

// CouponRepository defines data access for coupons and their issuance.
type CouponRepository interface {
	GetUserCoupon(ctx context.Context, id int64) (*model.UserCoupon, error)
	GetCoupon(ctx context.Context, id int64) (*model.Coupon, error)
	GetCoupons(ctx context.Context, ids []int64) ([]model.Coupon, error)

	// ListUserCoupons returns the user's coupons with their definitions,
	// optionally filtered by status.
	ListUserCoupons(ctx context.Context, userID int64, status *model.UserCouponStatus) ([]model.UserCoupon, error)

	// MarkUsed flips an unused coupon to used for the given order. It reports
	// false if the coupon was not unused.
	MarkUsed(ctx context.Context, tx pgx.Tx, userCouponID, orderID int64, usedAt time.Time) (bool, error)

	// ExpireOverdue marks unused coupons whose validity ended before now as
	// expired and returns how many changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// IssueBatch inserts unused user coupons for every grant.
	IssueBatch(ctx context.Context, grants []model.CouponGrant) (int64, error)
}

// UserRepository defines the user data checkout depends on.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// ConsumeFirstOrder clears the first-order flag and reports whether it
	// was still set.
	ConsumeFirstOrder(ctx context.Context, tx pgx.Tx, userID int64) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction and
	// fills in its generated ID and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order header. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// GetByOrderNoForUpdate locks and retrieves an order by its number.
	GetByOrderNoForUpdate(ctx context.Context, tx pgx.Tx, orderNo string) (*model.Order, error)

	GetItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)

	// ListByUser returns one page of the user's orders, newest first, and the
	// total number of matching orders.
	ListByUser(ctx context.Context, userID int64, status *model.OrderStatus, limit, offset int) ([]model.Order, int64, error)

	CountByStatus(ctx context.Context, userID int64) (map[model.OrderStatus]int64, error)

	// UpdateStatus moves an order from one status to another. It reports
	// false if the order was no longer in the from status.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to model.OrderStatus) (bool, error)

	// MarkPaid records payment details on a pending order.
	MarkPaid(ctx context.Context, tx pgx.Tx, id int64, payType, payNo string, paidAt time.Time) (bool, error)
}

// OutboxRepository stores order events until the relay publishes them.
type OutboxRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, event *model.OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}
