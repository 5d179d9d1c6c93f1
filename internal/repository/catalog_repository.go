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

// stockColumns maps an item kind to the table and column holding its stock.
var stockColumns = map[model.ItemType]struct {
	table  string
	column string
}{
	model.ItemTypeAttraction: {table: "attractions", column: "ticket_stock"},
	model.ItemTypeHotelRoom:  {table: "hotel_rooms", column: "stock"},
	model.ItemTypeProduct:    {table: "products", column: "stock"},
}

// catalogRepository implements the CatalogRepository interface using PostgreSQL.
type catalogRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool, logger zerolog.Logger) CatalogRepository {
	return &catalogRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "catalog").Logger(),
	}
}

// GetAttraction retrieves an attraction by ID.
func (r *catalogRepository) GetAttraction(ctx context.Context, id int64) (*model.Attraction, error) {
	query := `
		SELECT id, name, images, ticket_price, ticket_stock, status, created_at
		FROM attractions
		WHERE id = $1
	`

	var a model.Attraction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Images, &a.TicketPrice, &a.TicketStock, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("attraction_id", id).Msg("attraction not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("attraction_id", id).Msg("failed to query attraction")
		return nil, fmt.Errorf("failed to query attraction: %w", err)
	}

	return &a, nil
}

// GetHotelRoom retrieves a hotel room type by ID.
func (r *catalogRepository) GetHotelRoom(ctx context.Context, id int64) (*model.HotelRoom, error) {
	query := `
		SELECT id, hotel_id, room_type, images, price, stock, status, created_at
		FROM hotel_rooms
		WHERE id = $1
	`

	var h model.HotelRoom
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.HotelID, &h.RoomType, &h.Images, &h.Price, &h.Stock, &h.Status, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("room_id", id).Msg("hotel room not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("room_id", id).Msg("failed to query hotel room")
		return nil, fmt.Errorf("failed to query hotel room: %w", err)
	}

	return &h, nil
}

const productColumns = `id, name, code, category_id, images, price, stock, sales, status, created_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.CategoryID, &p.Images, &p.Price, &p.Stock, &p.Sales, &p.Status, &p.CreatedAt)
	return p, err
}

// GetProduct retrieves a single product by its ID.
func (r *catalogRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// ListProducts retrieves active products with pagination support.
func (r *catalogRepository) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE status = $1
		ORDER BY sales DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, model.StatusActive, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// DecrementStock lowers stock with a single conditional update so that
// concurrent checkouts can never drive it below zero.
func (r *catalogRepository) DecrementStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) (bool, error) {
	target, ok := stockColumns[itemType]
	if !ok {
		return false, fmt.Errorf("unknown item type %q", itemType)
	}

	query := fmt.Sprintf(
		`UPDATE %[1]s SET %[2]s = %[2]s - $2, updated_at = NOW() WHERE id = $1 AND %[2]s >= $2`,
		target.table, target.column,
	)

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).
			Str("item_type", string(itemType)).
			Int64("item_id", id).
			Int("quantity", qty).
			Msg("failed to decrement stock")
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("item_type", string(itemType)).
			Int64("item_id", id).
			Int("quantity", qty).
			Msg("stock decrement rejected")
		return false, nil
	}

	return true, nil
}

// RestoreStock adds qty back to the stock of an item.
func (r *catalogRepository) RestoreStock(ctx context.Context, tx pgx.Tx, itemType model.ItemType, id int64, qty int) error {
	target, ok := stockColumns[itemType]
	if !ok {
		return fmt.Errorf("unknown item type %q", itemType)
	}

	query := fmt.Sprintf(
		`UPDATE %[1]s SET %[2]s = %[2]s + $2, updated_at = NOW() WHERE id = $1`,
		target.table, target.column,
	)

	if _, err := tx.Exec(ctx, query, id, qty); err != nil {
		r.logger.Error().Err(err).
			Str("item_type", string(itemType)).
			Int64("item_id", id).
			Msg("failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	return nil
}

// AddSales increments the sales counter of a product.
func (r *catalogRepository) AddSales(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	query := `UPDATE products SET sales = sales + $2, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, productID, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to update product sales")
		return fmt.Errorf("failed to update product sales: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPersistenceFailure.Withf("product sales update affected no rows").
			With(model.ItemSubject(model.ItemTypeProduct, productID))
	}

	return nil
}
