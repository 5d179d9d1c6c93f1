package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-checkout/internal/catalog"
	"travel-checkout/internal/coupon"
	"travel-checkout/internal/model"
	"travel-checkout/internal/pricing"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// OrderServiceConfig holds the order lifecycle switches.
type OrderServiceConfig struct {
	// Topic receives the order events written to the outbox.
	Topic string

	// RestoreStockOnCancel returns the ordered quantities to stock when an
	// order is cancelled or refunded.
	RestoreStockOnCancel bool
}

// orderService implements OrderService.
type orderService struct {
	pricer      pricing.Pricer
	evaluator   coupon.Evaluator
	assembler   *Assembler
	orderRepo   repository.OrderRepository
	couponRepo  repository.CouponRepository
	outboxRepo  repository.OutboxRepository
	registry    *catalog.Registry
	invalidator ItemInvalidator
	cfg         OrderServiceConfig
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	pricer pricing.Pricer,
	evaluator coupon.Evaluator,
	assembler *Assembler,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	outboxRepo repository.OutboxRepository,
	registry *catalog.Registry,
	invalidator ItemInvalidator,
	cfg OrderServiceConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		pricer:      pricer,
		evaluator:   evaluator,
		assembler:   assembler,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		outboxRepo:  outboxRepo,
		registry:    registry,
		invalidator: invalidator,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder prices the request, evaluates the coupon and assembles the
// order. Nothing is written unless every step succeeds.
func (s *orderService) CreateOrder(ctx context.Context, userID int64, req *model.CreateOrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.ErrInvalidRequest.Withf("order request is required")
	}

	quote, err := s.pricer.Quote(ctx, userID, req)
	if err != nil {
		s.logFailure(err, userID, "order pricing rejected")
		return nil, err
	}

	discount, err := s.evaluator.Evaluate(ctx, coupon.EvaluationInput{
		UserID:       userID,
		UserCouponID: req.UserCouponID,
		Quote:        quote,
	})
	if err != nil {
		s.logFailure(err, userID, "coupon rejected")
		return nil, err
	}

	order, err := s.assembler.Assemble(ctx, userID, req, quote, discount)
	if err != nil {
		s.logFailure(err, userID, "order assembly failed")
		return nil, err
	}

	s.invalidator.InvalidateItems(ctx, itemRefs(order.Items))

	return order, nil
}

// GetOrderDetail retrieves one of the user's orders with its items.
func (s *orderService) GetOrderDetail(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.orderRepo.GetItems(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order items")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Items = items

	return order, nil
}

// ListUserOrders retrieves one page of the user's orders, newest first,
// with their items loaded in one query.
func (s *orderService) ListUserOrders(ctx context.Context, userID int64, query model.OrderListQuery) (*model.OrderPage, error) {
	if query.Status != nil && !query.Status.Valid() {
		return nil, model.ErrInvalidRequest.Withf("unknown order status %q", *query.Status)
	}

	page := max(query.Page, 1)
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	orders, total, err := s.orderRepo.ListByUser(ctx, userID, query.Status, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) > 0 {
		ids := make([]int64, len(orders))
		for i := range orders {
			ids[i] = orders[i].ID
		}

		itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, ids)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load order items")
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		for i := range orders {
			orders[i].Items = itemsByOrder[orders[i].ID]
		}
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return &model.OrderPage{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetOrderStatistics counts orders awaiting payment, awaiting use,
// completed and cancelled.
func (s *orderService) GetOrderStatistics(ctx context.Context, userID int64) (*model.OrderStatistics, error) {
	counts, err := s.orderRepo.CountByStatus(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count orders")
		return nil, fmt.Errorf("failed to get order statistics: %w", err)
	}

	return &model.OrderStatistics{
		PendingPay: counts[model.OrderStatusPendingPay],
		PendingUse: counts[model.OrderStatusPaid],
		Completed:  counts[model.OrderStatusCompleted],
		Cancelled:  counts[model.OrderStatusCancelled],
	}, nil
}

// CancelOrder moves a pending order to CANCELLED.
func (s *orderService) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return s.transition(ctx, orderID, userID, model.OrderStatusCancelled, model.EventOrderCancelled, "")
}

// ApplyRefund moves a paid or used order straight to REFUNDED.
func (s *orderService) ApplyRefund(ctx context.Context, orderID, userID int64, reason string) error {
	return s.transition(ctx, orderID, userID, model.OrderStatusRefunded, model.EventOrderRefunded, reason)
}

// transition applies a user-initiated status change. The update only
// matches while the order still has the status that was checked, so a
// concurrent change surfaces as ErrInvalidStateTransition.
func (s *orderService) transition(ctx context.Context, orderID, userID int64, to model.OrderStatus, eventType, reason string) error {
	order, err := s.ownedOrder(ctx, orderID, userID)
	if err != nil {
		return err
	}

	subject := model.OrderSubject(orderID)
	from := order.Status
	if !from.CanTransitionTo(to) {
		s.logger.Warn().
			Int64("order_id", orderID).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("order status does not allow transition")
		return model.ErrInvalidStateTransition.With(subject)
	}

	items, err := s.orderRepo.GetItems(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order items")
		return fmt.Errorf("failed to update order: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	updated, err := s.orderRepo.UpdateStatus(ctx, tx, orderID, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if !updated {
		s.logger.Warn().Int64("order_id", orderID).Msg("order status changed concurrently")
		return model.ErrInvalidStateTransition.With(subject)
	}
	order.Status = to

	restored := s.cfg.RestoreStockOnCancel && len(items) > 0
	if restored {
		for _, item := range items {
			kind, err := s.registry.Kind(item.ItemType)
			if err != nil {
				return err
			}
			if err := kind.Release(ctx, tx, item.ItemID, item.Quantity); err != nil {
				return err
			}
		}
	}

	event, err := orderOutboxEvent(s.cfg.Topic, eventType, order, items, reason, restored, s.now())
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	if err := s.outboxRepo.Insert(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if restored {
		s.invalidator.InvalidateItems(ctx, itemRefs(items))
	}

	s.logger.Info().
		Int64("order_id", orderID).
		Str("from", string(from)).
		Str("to", string(to)).
		Bool("stock_restored", restored).
		Msg("order status updated")

	return nil
}

// ConfirmPayment marks a pending order paid and consumes its coupon. Repeated
// or late confirmations for orders no longer pending are ignored.
func (s *orderService) ConfirmPayment(ctx context.Context, confirmation model.PaymentConfirmation) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.GetByOrderNoForUpdate(ctx, tx, confirmation.OrderNo)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound.With("ORDER_NO:" + confirmation.OrderNo)
	}
	if order.Status != model.OrderStatusPendingPay {
		s.logger.Info().
			Str("order_no", order.OrderNo).
			Str("status", string(order.Status)).
			Msg("ignoring payment confirmation for order that is not pending")
		return nil
	}

	paidAt := s.now()
	marked, err := s.orderRepo.MarkPaid(ctx, tx, order.ID, confirmation.PayType, confirmation.PayNo, paidAt)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if !marked {
		return model.ErrInvalidStateTransition.With(model.OrderSubject(order.ID))
	}
	order.Status = model.OrderStatusPaid

	if order.UserCouponID != nil {
		used, err := s.couponRepo.MarkUsed(ctx, tx, *order.UserCouponID, order.ID, paidAt)
		if err != nil {
			return fmt.Errorf("failed to confirm payment: %w", err)
		}
		if !used {
			// The payment has been taken; it is recorded regardless.
			s.logger.Warn().
				Int64("order_id", order.ID).
				Int64("user_coupon_id", *order.UserCouponID).
				Msg("applied coupon was no longer unused at payment")
		}
	}

	event, err := orderOutboxEvent(s.cfg.Topic, model.EventOrderPaid, order, nil, "", false, paidAt)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	if err := s.outboxRepo.Insert(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("failed to commit transaction")
		return fmt.Errorf("failed to confirm payment: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("order_no", order.OrderNo).
		Str("pay_type", confirmation.PayType).
		Msg("order paid")

	return nil
}

// ownedOrder loads an order header and checks it belongs to userID.
func (s *orderService) ownedOrder(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound.With(model.OrderSubject(orderID))
	}
	if order.UserID != userID {
		s.logger.Warn().
			Int64("order_id", orderID).
			Int64("user_id", userID).
			Msg("order belongs to another user")
		return nil, model.ErrForbidden.With(model.OrderSubject(orderID))
	}
	return order, nil
}

// logFailure logs domain rejections at warn and everything else at error.
func (s *orderService) logFailure(err error, userID int64, msg string) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) && domainErr.Code != model.ErrCodePersistenceFailure {
		s.logger.Warn().
			Int64("user_id", userID).
			Str("code", domainErr.Code).
			Str("subject", domainErr.Subject).
			Msg(msg)
		return
	}
	s.logger.Error().Err(err).Int64("user_id", userID).Msg(msg)
}

func itemRefs(items []model.OrderItem) []model.ItemRef {
	refs := make([]model.ItemRef, len(items))
	for i, item := range items {
		refs[i] = model.ItemRef{Type: item.ItemType, ID: item.ItemID}
	}
	return refs
}
