package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"travel-checkout/internal/cache"
	"travel-checkout/internal/catalog"
	"travel-checkout/internal/coupon"
	"travel-checkout/internal/handler"
	"travel-checkout/internal/pricing"
	"travel-checkout/internal/repository"
	"travel-checkout/internal/router"
	"travel-checkout/internal/service"
	"travel-checkout/internal/testsuite"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey = "test-api-key"
	testTopic  = "order-events"
)

// allTables lists every table in truncation order.
var allTables = []string{
	"outbox_events", "order_items", "orders", "user_coupons", "coupons",
	"cart_items", "products", "hotel_rooms", "attractions", "users",
}

// Stack is the checkout service wired against real PostgreSQL and Redis.
type Stack struct {
	DB      *testsuite.TestDB
	Redis   *redis.Client
	Orders  service.OrderService
	Cart    service.CartService
	Catalog service.CatalogService
	Server  http.Handler
}

// SetupStack starts the containers and builds every layer the API server
// builds, with Kafka left to the outbox table.
func SetupStack(t *testing.T, restoreStock bool) *Stack {
	t.Helper()

	db := testsuite.SetupPostgres(t)
	redisClient := testsuite.SetupRedis(t)
	logger := zerolog.Nop()

	catalogRepo := repository.NewCatalogRepository(db.Pool, logger)
	cartRepo := repository.NewCartRepository(db.Pool, logger)
	couponRepo := repository.NewCouponRepository(db.Pool, logger)
	userRepo := repository.NewUserRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	outboxRepo := repository.NewOutboxRepository(db.Pool, logger)

	registry := catalog.NewDefaultRegistry(catalogRepo)
	catalogService := service.NewCatalogService(registry, catalogRepo, cache.NewRedisCache(redisClient, time.Minute, logger), logger)
	cartService := service.NewCartService(registry, cartRepo, logger)
	couponService := service.NewCouponService(couponRepo, logger)
	assembler := service.NewAssembler(
		orderRepo, cartRepo, userRepo, outboxRepo,
		service.NewOrderNumberGenerator(nil), testTopic, logger,
	)
	orderService := service.NewOrderService(
		pricing.NewEngine(registry, cartRepo, logger),
		coupon.NewEvaluator(couponRepo, userRepo, time.Now, logger),
		assembler,
		orderRepo, couponRepo, outboxRepo,
		registry, catalogService,
		service.OrderServiceConfig{Topic: testTopic, RestoreStockOnCancel: restoreStock},
		logger,
	)

	validate := handler.NewValidator()
	server := router.New(router.Handlers{
		Orders:  handler.NewOrderHandler(orderService, validate, logger),
		Cart:    handler.NewCartHandler(cartService, couponService, validate, logger),
		Catalog: handler.NewCatalogHandler(catalogService, logger),
	}, router.Options{APIKey: testAPIKey, RequestsPerSecond: 1000, Burst: 1000}, logger)

	return &Stack{
		DB:      db,
		Redis:   redisClient,
		Orders:  orderService,
		Cart:    cartService,
		Catalog: catalogService,
		Server:  server,
	}
}

// Reset empties every table and the catalog cache between subtests. Ids
// restart at 1, so cached items would otherwise leak across subtests.
func (s *Stack) Reset(t *testing.T) {
	t.Helper()
	s.DB.Truncate(t, allTables...)
	require.NoError(t, s.Redis.FlushDB(context.Background()).Err())
}

// SeedUser inserts a user and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, firstOrder bool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (nickname, is_first_order) VALUES ('traveller', $1) RETURNING id`, firstOrder,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedProduct inserts an on-sale product in category 7.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name, price string, stock int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (name, code, category_id, images, price, stock, status)
		VALUES ($1, $2, 7, ARRAY['front.jpg','back.jpg'], $3, $4, 1)
		RETURNING id`,
		name, "SKU-"+name, decimal.RequireFromString(price), stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedAttraction inserts an attraction with the given status.
func SeedAttraction(t *testing.T, pool *pgxpool.Pool, price string, stock, status int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO attractions (name, images, ticket_price, ticket_stock, status)
		VALUES ('Summer Palace', ARRAY['palace.jpg'], $1, $2, $3)
		RETURNING id`,
		decimal.RequireFromString(price), stock, status,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedHotelRoom inserts an available room of hotel 3.
func SeedHotelRoom(t *testing.T, pool *pgxpool.Pool, price string, stock int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO hotel_rooms (hotel_id, room_type, price, stock, status)
		VALUES (3, 'Twin Lake View', $1, $2, 1)
		RETURNING id`,
		decimal.RequireFromString(price), stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedCoupon inserts an enabled coupon valid from an hour ago for a month
// and issues it to userID. It returns the issued coupon's id.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, userID int64, couponType, amount string, minAmount *string) int64 {
	t.Helper()
	ctx := context.Background()

	var threshold decimal.NullDecimal
	if minAmount != nil {
		threshold = decimal.NewNullDecimal(decimal.RequireFromString(*minAmount))
	}

	var couponID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO coupons (name, type, amount, min_amount, scope, valid_start_time, valid_end_time, status)
		VALUES ($1, $2, $3, $4, 'ALL', now() - interval '1 hour', now() + interval '30 days', 1)
		RETURNING id`,
		couponType+" "+amount, couponType, decimal.RequireFromString(amount), threshold,
	).Scan(&couponID)
	require.NoError(t, err)

	var userCouponID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO user_coupons (user_id, coupon_id) VALUES ($1, $2) RETURNING id`, userID, couponID,
	).Scan(&userCouponID)
	require.NoError(t, err)
	return userCouponID
}

// SeedCartEntry puts an item in the user's cart and returns the entry id.
func SeedCartEntry(t *testing.T, pool *pgxpool.Pool, userID int64, itemType string, itemID int64, qty int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO cart_items (user_id, item_type, item_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		userID, itemType, itemID, qty,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// ProductStock returns the stored stock and sales of a product.
func ProductStock(t *testing.T, pool *pgxpool.Pool, id int64) (stock, sales int) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		`SELECT stock, sales FROM products WHERE id = $1`, id,
	).Scan(&stock, &sales)
	require.NoError(t, err)
	return stock, sales
}

// CountRows counts the rows of a table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
