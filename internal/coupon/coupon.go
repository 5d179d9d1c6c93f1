// Package coupon validates coupons at checkout and issues coupons to users
// from gzipped grant files.
package coupon

import (
	"context"

	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"

	"github.com/shopspring/decimal"
)

// Evaluator validates an issued coupon against a priced request and computes
// the discount it grants.
type Evaluator interface {
	// Evaluate never writes, so evaluating the same input twice yields the
	// same discount.
	Evaluate(ctx context.Context, in EvaluationInput) (*Discount, error)
}

// EvaluationInput is what a coupon is checked against.
type EvaluationInput struct {
	UserID int64

	// UserCouponID is the issued coupon to apply, or nil for none.
	UserCouponID *int64

	Quote *pricing.Quote
}

// Discount is the outcome of a successful evaluation. UserCoupon and Coupon
// are nil when no coupon was requested.
type Discount struct {
	UserCoupon *model.UserCoupon
	Coupon     *model.Coupon
	Amount     decimal.Decimal
}

// RequiresFirstOrder reports whether the applied coupon is only valid for a
// user's first order.
func (d *Discount) RequiresFirstOrder() bool {
	return d != nil && d.Coupon != nil && d.Coupon.Type == model.CouponTypeFirstOrderReduction
}

// GrantSet is a deduplicated list of coupon grants read from one file.
type GrantSet interface {
	// Grants returns the grants in file order.
	Grants() []model.CouponGrant

	// Size returns the number of distinct grants in the set.
	Size() int
}

// Loader defines the interface for loading grant files.
type Loader interface {
	// Load reads a gzipped grant file with one "userID,couponID" pair per line.
	Load(ctx context.Context, filePath string) (GrantSet, error)
}

// Issuer turns grant files into issued user coupons.
type Issuer interface {
	Issue(ctx context.Context, filePaths []string) (*IssueReport, error)
}
