package coupon

import (
	"context"
	"fmt"
	"slices"
	"time"

	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// evaluator implements Evaluator over the coupon ledger and the user store.
type evaluator struct {
	couponRepo repository.CouponRepository
	userRepo   repository.UserRepository
	now        func() time.Time
	logger     zerolog.Logger
}

// NewEvaluator creates a coupon evaluator. A nil now uses time.Now.
func NewEvaluator(couponRepo repository.CouponRepository, userRepo repository.UserRepository, now func() time.Time, logger zerolog.Logger) Evaluator {
	if now == nil {
		now = time.Now
	}
	return &evaluator{
		couponRepo: couponRepo,
		userRepo:   userRepo,
		now:        now,
		logger:     logger.With().Str("component", "coupon-evaluator").Logger(),
	}
}

// Evaluate checks, in order and stopping at the first failure: ownership,
// unused status, the coupon definition, enabled flag, validity window,
// minimum amount, scope and first-order eligibility.
func (e *evaluator) Evaluate(ctx context.Context, in EvaluationInput) (*Discount, error) {
	if in.UserCouponID == nil {
		return &Discount{Amount: decimal.Zero}, nil
	}
	if in.Quote == nil {
		return nil, model.ErrInvalidRequest.Withf("coupon evaluated without a priced order")
	}

	userCouponID := *in.UserCouponID
	subject := model.CouponSubject(userCouponID)

	uc, err := e.couponRepo.GetUserCoupon(ctx, userCouponID)
	if err != nil {
		e.logger.Error().Err(err).Int64("user_coupon_id", userCouponID).Msg("failed to load user coupon")
		return nil, fmt.Errorf("failed to load user coupon: %w", err)
	}
	if uc == nil {
		return nil, model.ErrCouponNotFound.With(subject)
	}
	if uc.UserID != in.UserID {
		e.logger.Warn().
			Int64("user_id", in.UserID).
			Int64("user_coupon_id", userCouponID).
			Msg("coupon belongs to another user")
		return nil, model.ErrForbidden.With(subject)
	}
	if uc.Status != model.UserCouponUnused {
		return nil, model.ErrCouponAlreadyUsed.With(subject)
	}

	c, err := e.couponRepo.GetCoupon(ctx, uc.CouponID)
	if err != nil {
		e.logger.Error().Err(err).Int64("coupon_id", uc.CouponID).Msg("failed to load coupon")
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	if c == nil {
		return nil, model.ErrCouponNotFound.With(subject)
	}
	if !c.Enabled() {
		return nil, model.ErrCouponDisabled.With(subject)
	}

	now := e.now()
	if c.ValidStartTime != nil && now.Before(*c.ValidStartTime) {
		return nil, model.ErrCouponNotYetValid.With(subject)
	}
	if c.ValidEndTime != nil && now.After(*c.ValidEndTime) {
		return nil, model.ErrCouponExpired.With(subject)
	}

	total := in.Quote.TotalAmount
	if c.MinAmount.Valid && total.LessThan(c.MinAmount.Decimal) {
		e.logger.Debug().
			Int64("user_coupon_id", userCouponID).
			Str("total", total.StringFixed(2)).
			Str("min_amount", c.MinAmount.Decimal.StringFixed(2)).
			Msg("coupon threshold not met")
		return nil, model.ErrCouponThresholdNotMet.With(subject)
	}

	if !inScope(c, in.Quote.Lines) {
		return nil, model.ErrCouponScopeMismatch.With(subject)
	}

	if c.Type == model.CouponTypeFirstOrderReduction {
		user, err := e.userRepo.GetByID(ctx, in.UserID)
		if err != nil {
			e.logger.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to load user")
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if user == nil || !user.IsFirstOrder {
			return nil, model.ErrCouponNotEligible.With(subject)
		}
	}

	amount := discountAmount(c, total)

	e.logger.Debug().
		Int64("user_coupon_id", userCouponID).
		Str("type", string(c.Type)).
		Str("discount", amount.StringFixed(2)).
		Msg("coupon accepted")

	return &Discount{UserCoupon: uc, Coupon: c, Amount: amount}, nil
}

// inScope reports whether at least one line falls within the coupon scope.
// PRODUCT scope matches any line whose item id is listed, whatever its
// kind; CATEGORY scope matches lines by their catalog category.
func inScope(c *model.Coupon, lines []pricing.Line) bool {
	switch c.Scope {
	case "", model.CouponScopeAll:
		return true
	case model.CouponScopeProduct:
		for _, l := range lines {
			if slices.Contains(c.ScopeIDs, l.Item.ID) {
				return true
			}
		}
	case model.CouponScopeCategory:
		for _, l := range lines {
			if l.Item.CategoryID != nil && slices.Contains(c.ScopeIDs, *l.Item.CategoryID) {
				return true
			}
		}
	}
	return false
}

func discountAmount(c *model.Coupon, total decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case model.CouponTypeFullReduction, model.CouponTypeFirstOrderReduction:
		return c.Amount
	case model.CouponTypeDiscount:
		return total.Mul(c.Amount).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}
}
