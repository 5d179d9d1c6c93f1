package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderNoConstraint = "uq_orders_order_no"

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction. A
// duplicate order number is reported as a retryable persistence failure.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			order_no, user_id, order_type, total_amount, discount_amount, pay_amount,
			coupon_id, user_coupon_id, status, contact_name, contact_phone, remark
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.OrderNo,
		order.UserID,
		order.OrderType,
		order.TotalAmount,
		order.DiscountAmount,
		order.PayAmount,
		order.CouponID,
		order.UserCouponID,
		order.Status,
		order.ContactName,
		order.ContactPhone,
		order.Remark,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, orderNoConstraint) {
			r.logger.Warn().Str("order_no", order.OrderNo).Msg("order number collision")
			failure := model.ErrPersistenceFailure.Withf("order number already exists").Wrap(err)
			failure.Retryable = true
			return failure
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrPersistenceFailure.Withf("order insert returned no row")
		}
		r.logger.Error().
			Err(err).
			Str("order_no", order.OrderNo).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Str("order_no", order.OrderNo).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided
// transaction, filling in their generated IDs.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (
			order_id, item_type, item_id, item_name, item_image, item_code,
			quantity, price, total_price, check_in_date, check_out_date, use_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.OrderID,
			item.ItemType,
			item.ItemID,
			item.ItemName,
			item.ItemImage,
			item.ItemCode,
			item.Quantity,
			item.Price,
			item.TotalPrice,
			item.CheckInDate.TimePtr(),
			item.CheckOutDate.TimePtr(),
			item.UseDate.TimePtr(),
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		err := results.QueryRow().Scan(&items[i].ID, &items[i].CreatedAt)
		if err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Str("item_type", string(items[i].ItemType)).
				Int64("item_id", items[i].ItemID).
				Msg("failed to create order item")
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrPersistenceFailure.Withf("order item insert returned no row").
					With(model.ItemSubject(items[i].ItemType, items[i].ItemID))
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

const orderColumns = `id, order_no, user_id, order_type, total_amount, discount_amount, pay_amount,
	coupon_id, user_coupon_id, status, contact_name, contact_phone, remark,
	pay_time, pay_type, pay_no, created_at, updated_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.UserID, &o.OrderType, &o.TotalAmount, &o.DiscountAmount, &o.PayAmount,
		&o.CouponID, &o.UserCouponID, &o.Status, &o.ContactName, &o.ContactPhone, &o.Remark,
		&o.PayTime, &o.PayType, &o.PayNo, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// GetByID retrieves an order header by its ID.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) GetByOrderNoForUpdate(ctx context.Context, tx pgx.Tx, orderNo string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_no = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, orderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_no", orderNo).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_no", orderNo).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return &order, nil
}

const orderItemColumns = `id, order_id, item_type, item_id, item_name, item_image, item_code,
	quantity, price, total_price, check_in_date, check_out_date, use_date, created_at`

func scanOrderItem(row pgx.Row) (model.OrderItem, error) {
	var (
		item                     model.OrderItem
		checkIn, checkOut, useOn *time.Time
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ItemType, &item.ItemID, &item.ItemName, &item.ItemImage, &item.ItemCode,
		&item.Quantity, &item.Price, &item.TotalPrice, &checkIn, &checkOut, &useOn, &item.CreatedAt,
	)
	if err != nil {
		return item, err
	}
	item.CheckInDate = model.DateFromTime(checkIn)
	item.CheckOutDate = model.DateFromTime(checkOut)
	item.UseDate = model.DateFromTime(useOn)
	return item, nil
}

// GetItems retrieves the items of one order.
func (r *orderRepository) GetItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	byOrder, err := r.GetItemsByOrderIDs(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

// GetItemsByOrderIDs retrieves the items of several orders in one query.
func (r *orderRepository) GetItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	result := make(map[int64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int("order_count", len(orderIDs)).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return result, nil
}

// ListByUser returns one page of the user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64, status *model.OrderStatus, limit, offset int) ([]model.Order, int64, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND ($2::varchar IS NULL OR status = $2)`,
		userID, statusArg,
	).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND ($2::varchar IS NULL OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, statusArg, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list orders")
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, userID int64) (map[model.OrderStatus]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count orders by status")
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var (
			status model.OrderStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order counts: %w", err)
	}

	return counts, nil
}

// UpdateStatus is conditional on the current status so that two concurrent
// transitions cannot both succeed.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to model.OrderStatus) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("order_id", id).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, id int64, payType, payNo string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $2, pay_type = $3, pay_no = $4, pay_time = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`

	tag, err := tx.Exec(ctx, query, id, model.OrderStatusPaid, payType, payNo, paidAt, model.OrderStatusPendingPay)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
