package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType selects how a coupon's discount is computed.
type CouponType string

const (
	CouponTypeFullReduction       CouponType = "FULL_REDUCTION"
	CouponTypeDiscount            CouponType = "DISCOUNT"
	CouponTypeFreeShipping        CouponType = "FREE_SHIPPING"
	CouponTypeFirstOrderReduction CouponType = "FIRST_ORDER_REDUCTION"
)

// CouponScope limits which order lines a coupon applies to.
type CouponScope string

const (
	CouponScopeAll      CouponScope = "ALL"
	CouponScopeProduct  CouponScope = "PRODUCT"
	CouponScopeCategory CouponScope = "CATEGORY"
)

// Coupon status values.
const (
	CouponDisabled = 0
	CouponEnabled  = 1
)

// UserCouponStatus is the state of an issued coupon.
type UserCouponStatus int

const (
	UserCouponUnused  UserCouponStatus = 0
	UserCouponUsed    UserCouponStatus = 1
	UserCouponExpired UserCouponStatus = 2
)

// Coupon is a discount rule. Amount is a fixed value for reductions and a
// percentage for DISCOUNT coupons.
type Coupon struct {
	ID             int64               `json:"id" db:"id"`
	Name           string              `json:"name" db:"name"`
	Type           CouponType          `json:"type" db:"type"`
	Amount         decimal.Decimal     `json:"amount" db:"amount"`
	MinAmount      decimal.NullDecimal `json:"minAmount" db:"min_amount"`
	Scope          CouponScope         `json:"scope" db:"scope"`
	ScopeIDs       []int64             `json:"scopeIds,omitempty" db:"scope_ids"`
	ValidStartTime *time.Time          `json:"validStartTime,omitempty" db:"valid_start_time"`
	ValidEndTime   *time.Time          `json:"validEndTime,omitempty" db:"valid_end_time"`
	Status         int                 `json:"status" db:"status"`
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
}

// Enabled reports whether the coupon can be redeemed at all.
func (c *Coupon) Enabled() bool {
	return c.Status == CouponEnabled
}

// UserCoupon is a coupon issued to a user.
type UserCoupon struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"userId" db:"user_id"`
	CouponID  int64            `json:"couponId" db:"coupon_id"`
	Status    UserCouponStatus `json:"status" db:"status"`
	UsedTime  *time.Time       `json:"usedTime,omitempty" db:"used_time"`
	OrderID   *int64           `json:"orderId,omitempty" db:"order_id"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
	Coupon    *Coupon          `json:"coupon,omitempty"`
}

// CouponGrant is one line of a coupon issuance file.
type CouponGrant struct {
	UserID   int64
	CouponID int64
}
