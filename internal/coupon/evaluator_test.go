package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-checkout/internal/mocks"
	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return evalNow }

func int64Ptr(v int64) *int64 { return &v }

func timeAt(d time.Duration) *time.Time {
	t := evalNow.Add(d)
	return &t
}

// quoteOf builds a quote whose total is the sum of the given line totals.
func quoteOf(lines ...pricing.Line) *pricing.Quote {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return &pricing.Quote{Lines: lines, TotalAmount: total}
}

func productLine(id int64, categoryID int64, total string) pricing.Line {
	return pricing.Line{
		Item:     model.CatalogItem{Type: model.ItemTypeProduct, ID: id, CategoryID: int64Ptr(categoryID)},
		Quantity: 1,
		Total:    decimal.RequireFromString(total),
	}
}

func attractionLine(id int64, total string) pricing.Line {
	return pricing.Line{
		Item:     model.CatalogItem{Type: model.ItemTypeAttraction, ID: id},
		Quantity: 1,
		Total:    decimal.RequireFromString(total),
	}
}

func validCoupon() *model.Coupon {
	return &model.Coupon{
		ID:             100,
		Name:           "Summer 20 off",
		Type:           model.CouponTypeFullReduction,
		Amount:         decimal.NewFromInt(20),
		MinAmount:      decimal.NewNullDecimal(decimal.NewFromInt(100)),
		Scope:          model.CouponScopeAll,
		ValidStartTime: timeAt(-24 * time.Hour),
		ValidEndTime:   timeAt(24 * time.Hour),
		Status:         model.CouponEnabled,
	}
}

func unusedUserCoupon() *model.UserCoupon {
	return &model.UserCoupon{ID: 7, UserID: 1, CouponID: 100, Status: model.UserCouponUnused}
}

func TestEvaluator_NoCoupon(t *testing.T) {
	couponRepo := new(mocks.CouponRepository)
	userRepo := new(mocks.UserRepository)
	ev := NewEvaluator(couponRepo, userRepo, fixedNow, zerolog.Nop())

	d, err := ev.Evaluate(context.Background(), EvaluationInput{UserID: 1, Quote: quoteOf(attractionLine(1, "50"))})
	require.NoError(t, err)
	assert.True(t, d.Amount.IsZero())
	assert.Nil(t, d.Coupon)
	assert.False(t, d.RequiresFirstOrder())

	couponRepo.AssertNotCalled(t, "GetUserCoupon", mock.Anything, mock.Anything)
}

func TestEvaluator_Discounts(t *testing.T) {
	tests := []struct {
		name     string
		coupon   func(c *model.Coupon)
		quote    *pricing.Quote
		expected string
	}{
		{
			name:     "full reduction",
			coupon:   func(c *model.Coupon) {},
			quote:    quoteOf(attractionLine(1, "150")),
			expected: "20",
		},
		{
			name: "percentage discount rounds to cents",
			coupon: func(c *model.Coupon) {
				c.Type = model.CouponTypeDiscount
				c.Amount = decimal.NewFromInt(15)
			},
			quote:    quoteOf(attractionLine(1, "133.33")),
			expected: "20",
		},
		{
			name: "percentage discount",
			coupon: func(c *model.Coupon) {
				c.Type = model.CouponTypeDiscount
				c.Amount = decimal.NewFromInt(10)
				c.MinAmount = decimal.NullDecimal{}
			},
			quote:    quoteOf(attractionLine(1, "88.80")),
			expected: "8.88",
		},
		{
			name: "free shipping has no monetary effect",
			coupon: func(c *model.Coupon) {
				c.Type = model.CouponTypeFreeShipping
			},
			quote:    quoteOf(attractionLine(1, "150")),
			expected: "0",
		},
		{
			name: "threshold equal to total passes",
			coupon: func(c *model.Coupon) {
				c.MinAmount = decimal.NewNullDecimal(decimal.RequireFromString("150.00"))
			},
			quote:    quoteOf(attractionLine(1, "150")),
			expected: "20",
		},
		{
			name: "open-ended validity window",
			coupon: func(c *model.Coupon) {
				c.ValidStartTime = nil
				c.ValidEndTime = nil
			},
			quote:    quoteOf(attractionLine(1, "150")),
			expected: "20",
		},
		{
			name: "product scope matches one line",
			coupon: func(c *model.Coupon) {
				c.Scope = model.CouponScopeProduct
				c.ScopeIDs = []int64{42}
			},
			quote:    quoteOf(attractionLine(1, "100"), productLine(42, 9, "50")),
			expected: "20",
		},
		{
			name: "product scope matches an attraction by item id",
			coupon: func(c *model.Coupon) {
				c.Scope = model.CouponScopeProduct
				c.ScopeIDs = []int64{42}
			},
			quote:    quoteOf(attractionLine(42, "150")),
			expected: "20",
		},
		{
			name: "category scope matches one line",
			coupon: func(c *model.Coupon) {
				c.Scope = model.CouponScopeCategory
				c.ScopeIDs = []int64{9}
			},
			quote:    quoteOf(productLine(42, 9, "120")),
			expected: "20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponRepo := new(mocks.CouponRepository)
			userRepo := new(mocks.UserRepository)

			c := validCoupon()
			tt.coupon(c)
			couponRepo.On("GetUserCoupon", mock.Anything, int64(7)).Return(unusedUserCoupon(), nil)
			couponRepo.On("GetCoupon", mock.Anything, int64(100)).Return(c, nil)

			ev := NewEvaluator(couponRepo, userRepo, fixedNow, zerolog.Nop())

			d, err := ev.Evaluate(context.Background(), EvaluationInput{
				UserID:       1,
				UserCouponID: int64Ptr(7),
				Quote:        tt.quote,
			})
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(d.Amount), "got %s", d.Amount)
			assert.Equal(t, int64(7), d.UserCoupon.ID)
			assert.Equal(t, c, d.Coupon)
			userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}

func TestEvaluator_Failures(t *testing.T) {
	tests := []struct {
		name       string
		userCoupon *model.UserCoupon
		coupon     func(c *model.Coupon)
		quote      *pricing.Quote
		expected   error
	}{
		{
			name:       "unknown user coupon",
			userCoupon: nil,
			expected:   model.ErrCouponNotFound,
		},
		{
			name:       "owned by another user",
			userCoupon: &model.UserCoupon{ID: 7, UserID: 2, CouponID: 100, Status: model.UserCouponUnused},
			expected:   model.ErrForbidden,
		},
		{
			name:       "already used",
			userCoupon: &model.UserCoupon{ID: 7, UserID: 1, CouponID: 100, Status: model.UserCouponUsed},
			expected:   model.ErrCouponAlreadyUsed,
		},
		{
			name:       "expired status",
			userCoupon: &model.UserCoupon{ID: 7, UserID: 1, CouponID: 100, Status: model.UserCouponExpired},
			expected:   model.ErrCouponAlreadyUsed,
		},
		{
			name:     "disabled coupon",
			coupon:   func(c *model.Coupon) { c.Status = model.CouponDisabled },
			expected: model.ErrCouponDisabled,
		},
		{
			name:     "not yet valid",
			coupon:   func(c *model.Coupon) { c.ValidStartTime = timeAt(time.Hour) },
			expected: model.ErrCouponNotYetValid,
		},
		{
			name:     "expired window",
			coupon:   func(c *model.Coupon) { c.ValidEndTime = timeAt(-time.Hour) },
			expected: model.ErrCouponExpired,
		},
		{
			name:     "threshold not met",
			coupon:   func(c *model.Coupon) {},
			quote:    quoteOf(attractionLine(1, "99.99")),
			expected: model.ErrCouponThresholdNotMet,
		},
		{
			name: "product scope without matching line",
			coupon: func(c *model.Coupon) {
				c.Scope = model.CouponScopeProduct
				c.ScopeIDs = []int64{42}
			},
			quote:    quoteOf(attractionLine(41, "150"), productLine(43, 9, "20")),
			expected: model.ErrCouponScopeMismatch,
		},
		{
			name: "category scope with empty id list",
			coupon: func(c *model.Coupon) {
				c.Scope = model.CouponScopeCategory
				c.ScopeIDs = nil
			},
			quote:    quoteOf(productLine(42, 9, "150")),
			expected: model.ErrCouponScopeMismatch,
		},
		{
			name: "disabled wins over expired",
			coupon: func(c *model.Coupon) {
				c.Status = model.CouponDisabled
				c.ValidEndTime = timeAt(-time.Hour)
			},
			expected: model.ErrCouponDisabled,
		},
		{
			name: "expired wins over threshold",
			coupon: func(c *model.Coupon) {
				c.ValidEndTime = timeAt(-time.Hour)
			},
			quote:    quoteOf(attractionLine(1, "10")),
			expected: model.ErrCouponExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponRepo := new(mocks.CouponRepository)
			userRepo := new(mocks.UserRepository)

			uc := unusedUserCoupon()
			if tt.coupon == nil {
				uc = tt.userCoupon
			}
			couponRepo.On("GetUserCoupon", mock.Anything, int64(7)).Return(uc, nil)
			if tt.coupon != nil {
				c := validCoupon()
				tt.coupon(c)
				couponRepo.On("GetCoupon", mock.Anything, int64(100)).Return(c, nil)
			}

			quote := tt.quote
			if quote == nil {
				quote = quoteOf(attractionLine(1, "150"))
			}

			ev := NewEvaluator(couponRepo, userRepo, fixedNow, zerolog.Nop())

			d, err := ev.Evaluate(context.Background(), EvaluationInput{
				UserID:       1,
				UserCouponID: int64Ptr(7),
				Quote:        quote,
			})
			require.Error(t, err)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.expected)

			var domainErr *model.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "COUPON:7", domainErr.Subject)
		})
	}
}

func TestEvaluator_FirstOrder(t *testing.T) {
	firstOrderCoupon := func() *model.Coupon {
		c := validCoupon()
		c.Type = model.CouponTypeFirstOrderReduction
		c.Amount = decimal.NewFromInt(30)
		c.MinAmount = decimal.NullDecimal{}
		return c
	}

	tests := []struct {
		name     string
		user     *model.User
		expected error
	}{
		{name: "first order user", user: &model.User{ID: 1, IsFirstOrder: true}},
		{name: "returning user", user: &model.User{ID: 1, IsFirstOrder: false}, expected: model.ErrCouponNotEligible},
		{name: "unknown user", user: nil, expected: model.ErrCouponNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			couponRepo := new(mocks.CouponRepository)
			userRepo := new(mocks.UserRepository)

			couponRepo.On("GetUserCoupon", mock.Anything, int64(7)).Return(unusedUserCoupon(), nil)
			couponRepo.On("GetCoupon", mock.Anything, int64(100)).Return(firstOrderCoupon(), nil)
			userRepo.On("GetByID", mock.Anything, int64(1)).Return(tt.user, nil)

			ev := NewEvaluator(couponRepo, userRepo, fixedNow, zerolog.Nop())

			d, err := ev.Evaluate(context.Background(), EvaluationInput{
				UserID:       1,
				UserCouponID: int64Ptr(7),
				Quote:        quoteOf(attractionLine(1, "80")),
			})
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(30).Equal(d.Amount))
			assert.True(t, d.RequiresFirstOrder())
		})
	}
}

func TestEvaluator_Idempotent(t *testing.T) {
	couponRepo := new(mocks.CouponRepository)
	userRepo := new(mocks.UserRepository)

	couponRepo.On("GetUserCoupon", mock.Anything, int64(7)).Return(unusedUserCoupon(), nil)
	couponRepo.On("GetCoupon", mock.Anything, int64(100)).Return(validCoupon(), nil)

	ev := NewEvaluator(couponRepo, userRepo, fixedNow, zerolog.Nop())
	in := EvaluationInput{UserID: 1, UserCouponID: int64Ptr(7), Quote: quoteOf(attractionLine(1, "150"))}

	first, err := ev.Evaluate(context.Background(), in)
	require.NoError(t, err)
	second, err := ev.Evaluate(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, first.Amount.Equal(second.Amount))
	couponRepo.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluator_StoreErrors(t *testing.T) {
	dbErr := errors.New("connection refused")

	t.Run("user coupon lookup", func(t *testing.T) {
		couponRepo := new(mocks.CouponRepository)
		couponRepo.On("GetUserCoupon", mock.Anything, int64(7)).Return(nil, dbErr)

		ev := NewEvaluator(couponRepo, new(mocks.UserRepository), fixedNow, zerolog.Nop())
		_, err := ev.Evaluate(context.Background(), EvaluationInput{UserID: 1, UserCouponID: int64Ptr(7), Quote: quoteOf()})
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("missing quote", func(t *testing.T) {
		ev := NewEvaluator(new(mocks.CouponRepository), new(mocks.UserRepository), fixedNow, zerolog.Nop())
		_, err := ev.Evaluate(context.Background(), EvaluationInput{UserID: 1, UserCouponID: int64Ptr(7)})
		assert.ErrorIs(t, err, model.ErrInvalidRequest)
	})
}
