package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-checkout/internal/coupon"
	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"
	"travel-checkout/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Assembler persists a priced, discounted checkout as one transaction.
type Assembler struct {
	orderRepo  repository.OrderRepository
	cartRepo   repository.CartRepository
	userRepo   repository.UserRepository
	outboxRepo repository.OutboxRepository
	numbers    OrderNumberGenerator
	topic      string
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAssembler creates an order assembler writing order events to topic.
func NewAssembler(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	outboxRepo repository.OutboxRepository,
	numbers OrderNumberGenerator,
	topic string,
	logger zerolog.Logger,
) *Assembler {
	return &Assembler{
		orderRepo:  orderRepo,
		cartRepo:   cartRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		numbers:    numbers,
		topic:      topic,
		now:        time.Now,
		logger:     logger.With().Str("component", "order-assembler").Logger(),
	}
}

// Assemble writes the order header and lines, reserves stock for every line,
// clears the user's first-order flag, deletes the consumed cart entries and
// records an order.created event. Either all of it commits or none of it.
func (a *Assembler) Assemble(
	ctx context.Context,
	userID int64,
	req *model.CreateOrderRequest,
	quote *pricing.Quote,
	discount *coupon.Discount,
) (*model.Order, error) {
	tx, err := a.orderRepo.BeginTx(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer rollback(ctx, tx, a.logger)

	order := a.newOrder(userID, req, quote, discount)

	if err := a.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, len(quote.Lines))
	for i, line := range quote.Lines {
		items[i] = line.OrderItem(order.ID)
	}
	if err := a.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, err
	}
	order.Items = items

	for _, line := range quote.Lines {
		if err := line.Kind.Reserve(ctx, tx, line.Item.ID, line.Quantity); err != nil {
			if errors.Is(err, model.ErrInsufficientStock) {
				a.logger.Warn().
					Str("item", line.Item.Subject()).
					Int("quantity", line.Quantity).
					Msg("stock ran out during checkout")
			}
			return nil, err
		}
	}

	consumed, err := a.userRepo.ConsumeFirstOrder(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if discount.RequiresFirstOrder() && !consumed {
		// Another first order committed since the coupon was evaluated.
		return nil, model.ErrCouponNotEligible.With(model.CouponSubject(discount.UserCoupon.ID))
	}

	if len(quote.CartIDs) > 0 {
		deleted, err := a.cartRepo.DeleteByIDs(ctx, tx, userID, quote.CartIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if deleted != int64(len(quote.CartIDs)) {
			a.logger.Warn().
				Int64("user_id", userID).
				Int("expected", len(quote.CartIDs)).
				Int64("deleted", deleted).
				Msg("cart entries changed during checkout")
			return nil, model.ErrPersistenceFailure.Withf("cart entries changed during checkout")
		}
	}

	event, err := orderOutboxEvent(a.topic, model.EventOrderCreated, order, items, "", false, a.now())
	if err != nil {
		return nil, fmt.Errorf("failed to encode order event: %w", err)
	}
	if err := a.outboxRepo.Insert(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		a.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("failed to commit transaction")
		return nil, model.ErrPersistenceFailure.Withf("order could not be committed").Wrap(err)
	}

	a.logger.Info().
		Int64("order_id", order.ID).
		Str("order_no", order.OrderNo).
		Int64("user_id", userID).
		Int("item_count", len(items)).
		Str("pay_amount", order.PayAmount.StringFixed(2)).
		Msg("order created successfully")

	return order, nil
}

func (a *Assembler) newOrder(userID int64, req *model.CreateOrderRequest, quote *pricing.Quote, discount *coupon.Discount) *model.Order {
	payAmount := quote.TotalAmount.Sub(discount.Amount)
	if payAmount.IsNegative() {
		payAmount = decimal.Zero
	}

	order := &model.Order{
		OrderNo:        a.numbers.Next(),
		UserID:         userID,
		OrderType:      req.OrderType,
		TotalAmount:    quote.TotalAmount,
		DiscountAmount: discount.Amount,
		PayAmount:      payAmount,
		Status:         model.OrderStatusPendingPay,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
		Remark:         req.Remark,
	}
	if discount.UserCoupon != nil {
		ucID := discount.UserCoupon.ID
		couponID := discount.Coupon.ID
		order.UserCouponID = &ucID
		order.CouponID = &couponID
	}
	return order
}

// rollback aborts tx unless it was already committed. It runs on a context
// that survives cancellation of the request.
func rollback(ctx context.Context, tx pgx.Tx, logger zerolog.Logger) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Error().Err(err).Msg("failed to rollback transaction")
	}
}

// orderOutboxEvent builds the outbox row for an order state change.
func orderOutboxEvent(
	topic, eventType string,
	order *model.Order,
	items []model.OrderItem,
	reason string,
	stockReturned bool,
	at time.Time,
) (*model.OutboxEvent, error) {
	quantities := make([]model.ItemQuantity, len(items))
	for i, item := range items {
		quantities[i] = model.ItemQuantity{
			ItemRef:  model.ItemRef{Type: item.ItemType, ID: item.ItemID},
			Quantity: item.Quantity,
		}
	}

	return model.NewOrderOutboxEvent(topic, model.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		UserID:      order.UserID,
		Status:      order.Status,
		PayAmount:   order.PayAmount,
		Items:       quantities,
		Reason:      reason,
		StockReturn: stockReturned,
		OccurredAt:  at,
	})
}
