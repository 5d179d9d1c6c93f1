package repository

import (
	"context"
	"errors"
	"fmt"

	"travel-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartColumns = `id, user_id, item_type, item_id, quantity, created_at, updated_at`

func scanCartItem(row pgx.Row) (model.CartItem, error) {
	var c model.CartItem
	err := row.Scan(&c.ID, &c.UserID, &c.ItemType, &c.ItemID, &c.Quantity, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *cartRepository) collect(rows pgx.Rows) ([]model.CartItem, error) {
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		c, err := scanCartItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}

// GetByIDs retrieves cart entries by ID regardless of owner.
func (r *cartRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.CartItem, error) {
	if len(ids) == 0 {
		return []model.CartItem{}, nil
	}

	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE id = ANY($1) ORDER BY id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query cart items by IDs")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}

	return r.collect(rows)
}

// GetByID returns nil when the entry does not exist.
func (r *cartRepository) GetByID(ctx context.Context, id int64) (*model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE id = $1`

	c, err := scanCartItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("cart_id", id).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}

	return &c, nil
}

func (r *cartRepository) GetByUserAndItem(ctx context.Context, userID int64, itemType model.ItemType, itemID int64) (*model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 AND item_type = $2 AND item_id = $3`

	c, err := scanCartItem(r.pool.QueryRow(ctx, query, userID, itemType, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}

	return &c, nil
}

func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list cart items")
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	return r.collect(rows)
}

// Upsert relies on the (user_id, item_type, item_id) unique constraint to
// merge quantities atomically.
func (r *cartRepository) Upsert(ctx context.Context, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, item_type, item_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT uq_cart_items_user_item
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, item.UserID, item.ItemType, item.ItemID, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("user_id", item.UserID).
			Str("item_type", string(item.ItemType)).
			Int64("item_id", item.ItemID).
			Msg("failed to upsert cart item")
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return nil
}

// UpdateQuantity overwrites the quantity of one of the user's entries. It
// returns nil when no entry with that id belongs to the user.
func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, id int64, quantity int) (*model.CartItem, error) {
	query := `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + cartColumns

	c, err := scanCartItem(r.pool.QueryRow(ctx, query, id, userID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Int64("cart_id", id).
			Int("quantity", quantity).
			Msg("failed to update cart item")
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return &c, nil
}

func (r *cartRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("cart_id", id).Msg("failed to delete cart item")
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteByIDs removes consumed cart entries inside the checkout transaction.
func (r *cartRepository) DeleteByIDs(ctx context.Context, tx pgx.Tx, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("user_id", userID).
			Int("count", len(ids)).
			Msg("failed to delete cart items")
		return 0, fmt.Errorf("failed to delete cart items: %w", err)
	}

	r.logger.Debug().
		Int64("user_id", userID).
		Int64("deleted", tag.RowsAffected()).
		Msg("cart items consumed")

	return tag.RowsAffected(), nil
}
