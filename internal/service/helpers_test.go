package service

import (
	"context"
	"testing"
	"time"

	"travel-checkout/internal/catalog"
	"travel-checkout/internal/coupon"
	"travel-checkout/internal/mocks"
	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

// fixedNumbers always hands out the same order number.
type fixedNumbers string

func (n fixedNumbers) Next() string { return string(n) }

// recordingInvalidator remembers the refs it was asked to drop.
type recordingInvalidator struct {
	refs []model.ItemRef
}

func (r *recordingInvalidator) InvalidateItems(ctx context.Context, refs []model.ItemRef) {
	r.refs = append(r.refs, refs...)
}

// fixture bundles the mocks every service test needs.
type fixture struct {
	orderRepo   *mocks.OrderRepository
	cartRepo    *mocks.CartRepository
	userRepo    *mocks.UserRepository
	outboxRepo  *mocks.OutboxRepository
	couponRepo  *mocks.CouponRepository
	catalogRepo *mocks.CatalogRepository
	tx          *mocks.Tx
	registry    *catalog.Registry
	invalidator *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orderRepo:   new(mocks.OrderRepository),
		cartRepo:    new(mocks.CartRepository),
		userRepo:    new(mocks.UserRepository),
		outboxRepo:  new(mocks.OutboxRepository),
		couponRepo:  new(mocks.CouponRepository),
		catalogRepo: new(mocks.CatalogRepository),
		tx:          new(mocks.Tx),
		invalidator: &recordingInvalidator{},
	}
	f.registry = catalog.NewDefaultRegistry(f.catalogRepo)
	// Rollback always runs deferred; after a commit pgx reports ErrTxClosed.
	f.tx.On("Rollback", mock.Anything).Return(pgx.ErrTxClosed).Maybe()
	return f
}

func (f *fixture) assembler() *Assembler {
	a := NewAssembler(f.orderRepo, f.cartRepo, f.userRepo, f.outboxRepo, fixedNumbers("ORD20260615093000ABCDEF012345"), "order-events", zerolog.Nop())
	a.now = func() time.Time { return testNow }
	return a
}

// expectBegin makes BeginTx hand out the fixture transaction.
func (f *fixture) expectBegin() {
	f.orderRepo.On("BeginTx", mock.Anything).Return(f.tx, nil)
}

// expectCreate accepts the order header and lines, assigning id to the order.
func (f *fixture) expectCreate(id int64) {
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			order := args.Get(2).(*model.Order)
			order.ID = id
			order.CreatedAt = testNow
		}).
		Return(nil)
	f.orderRepo.On("CreateOrderItems", mock.Anything, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64Ptr(v int64) *int64 { return &v }

// line builds a priced line resolved through kind.
func line(kind catalog.Kind, id int64, price string, qty int) pricing.Line {
	unit := money(price)
	return pricing.Line{
		Kind:      kind,
		Item:      model.CatalogItem{Type: kind.Type(), ID: id, Name: string(kind.Type()) + " item", Price: unit, Status: model.StatusActive, Stock: 100},
		Quantity:  qty,
		UnitPrice: unit,
		Total:     unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func quote(cartIDs []int64, lines ...pricing.Line) *pricing.Quote {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return &pricing.Quote{Lines: lines, TotalAmount: total, CartIDs: cartIDs}
}

func noDiscount() *coupon.Discount {
	return &coupon.Discount{Amount: decimal.Zero}
}

func couponDiscount(couponType model.CouponType, amount string) *coupon.Discount {
	return &coupon.Discount{
		UserCoupon: &model.UserCoupon{ID: 7, UserID: 1, CouponID: 100, Status: model.UserCouponUnused},
		Coupon:     &model.Coupon{ID: 100, Type: couponType, Amount: money(amount), Status: model.CouponEnabled},
		Amount:     money(amount),
	}
}

func orderRequest() *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		OrderType:    model.OrderTypeAttraction,
		ContactName:  "Li Lei",
		ContactPhone: "13800000000",
	}
}
