package repository

import (
	"context"
	"testing"
	"time"

	"travel-checkout/internal/model"
	"travel-checkout/internal/testsuite"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// setupTestDB starts a migrated PostgreSQL container for one test.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	return testsuite.SetupPostgres(t).Pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, firstOrder bool) int64 {
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (nickname, is_first_order) VALUES ('tester', $1) RETURNING id`, firstOrder,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, name string, price string, stock int) int64 {
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (name, code, category_id, images, price, stock, status)
		VALUES ($1, $2, 7, ARRAY['a.jpg','b.jpg'], $3, $4, 1)
		RETURNING id`,
		name, "SKU-"+name, decimal.RequireFromString(price), stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedAttraction(t *testing.T, pool *pgxpool.Pool, price string, stock, status int) int64 {
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO attractions (name, images, ticket_price, ticket_stock, status)
		VALUES ('West Lake', ARRAY['lake.jpg'], $1, $2, $3)
		RETURNING id`,
		decimal.RequireFromString(price), stock, status,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedHotelRoom(t *testing.T, pool *pgxpool.Pool, price string, stock int) int64 {
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO hotel_rooms (hotel_id, room_type, price, stock, status)
		VALUES (3, 'Deluxe King', $1, $2, 1)
		RETURNING id`,
		decimal.RequireFromString(price), stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedCoupon(t *testing.T, pool *pgxpool.Pool, c model.Coupon) int64 {
	var scope *string
	if c.Scope != "" {
		s := string(c.Scope)
		scope = &s
	}
	if c.ScopeIDs == nil {
		c.ScopeIDs = []int64{}
	}
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO coupons (name, type, amount, min_amount, scope, scope_ids, valid_start_time, valid_end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.Name, c.Type, c.Amount, c.MinAmount, scope, c.ScopeIDs, c.ValidStartTime, c.ValidEndTime, c.Status,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedUserCoupon(t *testing.T, pool *pgxpool.Pool, userID, couponID int64) int64 {
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO user_coupons (user_id, coupon_id) VALUES ($1, $2) RETURNING id`, userID, couponID,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func timePtr(t time.Time) *time.Time {
	return &t
}
