package service

import (
	"context"

	"travel-checkout/internal/model"
)

// OrderService defines checkout and the order lifecycle.
type OrderService interface {
	// CreateOrder prices the request, applies at most one coupon and
	// persists the order with all its side effects atomically.
	CreateOrder(ctx context.Context, userID int64, req *model.CreateOrderRequest) (*model.Order, error)

	// GetOrderDetail retrieves one of the user's orders with its items.
	GetOrderDetail(ctx context.Context, orderID, userID int64) (*model.Order, error)

	// ListUserOrders retrieves one page of the user's orders with items.
	ListUserOrders(ctx context.Context, userID int64, query model.OrderListQuery) (*model.OrderPage, error)

	// GetOrderStatistics counts the user's orders per lifecycle bucket.
	GetOrderStatistics(ctx context.Context, userID int64) (*model.OrderStatistics, error)

	// CancelOrder moves a pending order to CANCELLED.
	CancelOrder(ctx context.Context, orderID, userID int64) error

	// ApplyRefund moves a paid or used order to REFUNDED.
	ApplyRefund(ctx context.Context, orderID, userID int64, reason string) error

	// ConfirmPayment records a successful payment for a pending order. It is
	// a no-op for an order that is no longer pending.
	ConfirmPayment(ctx context.Context, confirmation model.PaymentConfirmation) error
}

// CatalogService defines read access to the catalog.
type CatalogService interface {
	// GetItem retrieves a catalog item of any kind, through the cache.
	GetItem(ctx context.Context, itemType model.ItemType, id int64) (*model.CatalogItem, error)

	// ListProducts retrieves active products with pagination.
	ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error)

	ItemInvalidator
}

// ItemInvalidator drops cached catalog entries after their stock changed.
type ItemInvalidator interface {
	InvalidateItems(ctx context.Context, refs []model.ItemRef)
}

// CartService defines operations on a user's cart.
type CartService interface {
	// AddToCart adds the item, merging with an existing entry for it.
	AddToCart(ctx context.Context, userID int64, req *model.AddCartItemRequest) (*model.CartItem, error)

	ListCart(ctx context.Context, userID int64) ([]model.CartItem, error)

	// UpdateCartQuantity replaces the quantity of one of the user's entries.
	UpdateCartQuantity(ctx context.Context, userID, cartItemID int64, quantity int) (*model.CartItem, error)

	RemoveFromCart(ctx context.Context, userID, cartItemID int64) error
}

// CouponService defines the user's view of issued coupons.
type CouponService interface {
	// ListUserCoupons returns the user's coupons, optionally by status.
	ListUserCoupons(ctx context.Context, userID int64, status *model.UserCouponStatus) ([]model.UserCoupon, error)
}
