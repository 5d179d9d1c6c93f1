package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType classifies an order by the catalog it was placed against.
type OrderType string

const (
	OrderTypeAttraction OrderType = "ATTRACTION"
	OrderTypeHotel      OrderType = "HOTEL"
	OrderTypeProduct    OrderType = "PRODUCT"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPendingPay OrderStatus = "PENDING_PAY"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusUsed       OrderStatus = "USED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPay: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusUsed, OrderStatusRefunded},
	OrderStatusUsed:       {OrderStatusCompleted, OrderStatusRefunded},
}

// CanTransitionTo reports whether the order may move from s to next.
// COMPLETED, CANCELLED and REFUNDED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPendingPay, OrderStatusPaid, OrderStatusUsed,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Order represents a customer order header.
type Order struct {
	ID             int64           `json:"id" db:"id"`
	OrderNo        string          `json:"orderNo" db:"order_no"`
	UserID         int64           `json:"userId" db:"user_id"`
	OrderType      OrderType       `json:"orderType" db:"order_type"`
	TotalAmount    decimal.Decimal `json:"totalAmount" db:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	PayAmount      decimal.Decimal `json:"payAmount" db:"pay_amount"`
	CouponID       *int64          `json:"couponId,omitempty" db:"coupon_id"`
	UserCouponID   *int64          `json:"userCouponId,omitempty" db:"user_coupon_id"`
	Status         OrderStatus     `json:"status" db:"status"`
	ContactName    string          `json:"contactName" db:"contact_name"`
	ContactPhone   string          `json:"contactPhone" db:"contact_phone"`
	Remark         *string         `json:"remark,omitempty" db:"remark"`
	PayTime        *time.Time      `json:"payTime,omitempty" db:"pay_time"`
	PayType        *string         `json:"payType,omitempty" db:"pay_type"`
	PayNo          *string         `json:"payNo,omitempty" db:"pay_no"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
	Items          []OrderItem     `json:"items,omitempty"`
}

// OrderItem represents a priced line of an order. Name, image, code and
// price are copied from the catalog when the order is created.
type OrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"orderId" db:"order_id"`
	ItemType     ItemType        `json:"itemType" db:"item_type"`
	ItemID       int64           `json:"itemId" db:"item_id"`
	ItemName     string          `json:"itemName" db:"item_name"`
	ItemImage    *string         `json:"itemImage,omitempty" db:"item_image"`
	ItemCode     *string         `json:"itemCode,omitempty" db:"item_code"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Price        decimal.Decimal `json:"price" db:"price"`
	TotalPrice   decimal.Decimal `json:"totalPrice" db:"total_price"`
	CheckInDate  *Date           `json:"checkInDate,omitempty" db:"check_in_date"`
	CheckOutDate *Date           `json:"checkOutDate,omitempty" db:"check_out_date"`
	UseDate      *Date           `json:"useDate,omitempty" db:"use_date"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// CreateOrderRequest represents the request payload for creating an order.
// Exactly one of CartIDs and Items must be supplied.
type CreateOrderRequest struct {
	OrderType    OrderType          `json:"orderType" validate:"required,oneof=ATTRACTION HOTEL PRODUCT"`
	CartIDs      []int64            `json:"cartIds,omitempty" validate:"omitempty,dive,gt=0"`
	Items        []OrderItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
	UserCouponID *int64             `json:"couponId,omitempty" validate:"omitempty,gt=0"`
	ContactName  string             `json:"contactName" validate:"required,max=50"`
	ContactPhone string             `json:"contactPhone" validate:"required,max=20"`
	Remark       *string            `json:"remark,omitempty" validate:"omitempty,max=500"`
}

// OrderItemRequest represents a single direct-buy line in an order request.
type OrderItemRequest struct {
	ItemType     ItemType `json:"itemType" validate:"required"`
	ItemID       int64    `json:"itemId" validate:"required,gt=0"`
	Quantity     int      `json:"quantity"`
	CheckInDate  *Date    `json:"checkInDate,omitempty"`
	CheckOutDate *Date    `json:"checkOutDate,omitempty"`
	UseDate      *Date    `json:"useDate,omitempty"`
}

// RefundRequest carries the reason a user gives when asking for a refund.
type RefundRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// OrderListQuery filters and pages a user's orders.
type OrderListQuery struct {
	Status   *OrderStatus
	Page     int
	PageSize int
}

// OrderPage is one page of a user's orders.
type OrderPage struct {
	Orders   []Order `json:"orders"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// OrderStatistics counts a user's orders per lifecycle bucket.
type OrderStatistics struct {
	PendingPay int64 `json:"pendingPay"`
	PendingUse int64 `json:"pendingUse"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

// PaymentConfirmation is the result of a successful payment reported by
// the payment provider.
type PaymentConfirmation struct {
	OrderNo string `json:"orderNo" validate:"required"`
	PayType string `json:"payType" validate:"required,max=20"`
	PayNo   string `json:"payNo" validate:"required,max=64"`
}
