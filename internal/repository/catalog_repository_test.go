package repository

import (
	"context"
	"sync"
	"testing"

	"travel-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepository_Lookups(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCatalogRepository(pool, zerolog.Nop())
	ctx := context.Background()

	productID := seedProduct(t, pool, "Tea", "100.00", 5)
	attractionID := seedAttraction(t, pool, "80.50", 10, 0)
	roomID := seedHotelRoom(t, pool, "420.00", 2)

	t.Run("product", func(t *testing.T) {
		p, err := repo.GetProduct(ctx, productID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Tea", p.Name)
		assert.True(t, decimal.RequireFromString("100").Equal(p.Price))
		assert.Equal(t, 5, p.Stock)
		assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.Images)
		require.NotNil(t, p.Code)
		assert.Equal(t, "SKU-Tea", *p.Code)
		require.NotNil(t, p.CategoryID)
		assert.Equal(t, int64(7), *p.CategoryID)
	})

	t.Run("attraction", func(t *testing.T) {
		a, err := repo.GetAttraction(ctx, attractionID)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "80.5", a.TicketPrice.String())
		assert.Equal(t, 0, a.Status)
	})

	t.Run("hotel room", func(t *testing.T) {
		h, err := repo.GetHotelRoom(ctx, roomID)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, "Deluxe King", h.RoomType)
		assert.Equal(t, 2, h.Stock)
	})

	t.Run("missing records return nil", func(t *testing.T) {
		p, err := repo.GetProduct(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, p)

		a, err := repo.GetAttraction(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, a)

		h, err := repo.GetHotelRoom(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, h)
	})
}

func TestCatalogRepository_ListProducts(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCatalogRepository(pool, zerolog.Nop())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seedProduct(t, pool, name, "10.00", 1)
	}
	_, err := pool.Exec(ctx, `UPDATE products SET status = 0 WHERE name = 'E'`)
	require.NoError(t, err)

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected int
	}{
		{name: "All active products", limit: 10, offset: 0, expected: 4},
		{name: "First page", limit: 2, offset: 0, expected: 2},
		{name: "Last page", limit: 3, offset: 3, expected: 1},
		{name: "Offset beyond results", limit: 10, offset: 10, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.ListProducts(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Len(t, products, tt.expected)
		})
	}
}

func TestCatalogRepository_DecrementStock(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCatalogRepository(pool, zerolog.Nop())
	ctx := context.Background()

	productID := seedProduct(t, pool, "Fan", "12.00", 3)
	attractionID := seedAttraction(t, pool, "50.00", 1, 1)
	roomID := seedHotelRoom(t, pool, "300.00", 4)

	tests := []struct {
		name     string
		itemType model.ItemType
		id       int64
		qty      int
		applied  bool
		stockSQL string
		expected int
	}{
		{name: "product within stock", itemType: model.ItemTypeProduct, id: productID, qty: 2, applied: true,
			stockSQL: `SELECT stock FROM products WHERE id = $1`, expected: 1},
		{name: "product beyond stock", itemType: model.ItemTypeProduct, id: productID, qty: 2, applied: false,
			stockSQL: `SELECT stock FROM products WHERE id = $1`, expected: 1},
		{name: "attraction last ticket", itemType: model.ItemTypeAttraction, id: attractionID, qty: 1, applied: true,
			stockSQL: `SELECT ticket_stock FROM attractions WHERE id = $1`, expected: 0},
		{name: "hotel room", itemType: model.ItemTypeHotelRoom, id: roomID, qty: 4, applied: true,
			stockSQL: `SELECT stock FROM hotel_rooms WHERE id = $1`, expected: 0},
		{name: "missing item", itemType: model.ItemTypeProduct, id: 9999, qty: 1, applied: false,
			stockSQL: `SELECT 0 WHERE $1::bigint IS NOT NULL`, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := pool.Begin(ctx)
			require.NoError(t, err)

			applied, err := repo.DecrementStock(ctx, tx, tt.itemType, tt.id, tt.qty)
			require.NoError(t, err)
			assert.Equal(t, tt.applied, applied)
			require.NoError(t, tx.Commit(ctx))

			var stock int
			require.NoError(t, pool.QueryRow(ctx, tt.stockSQL, tt.id).Scan(&stock))
			assert.Equal(t, tt.expected, stock)
		})
	}

	t.Run("unknown item type", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		_, err = repo.DecrementStock(ctx, tx, model.ItemType("TRAIN"), 1, 1)
		assert.Error(t, err)
	})
}

func TestCatalogRepository_DecrementStock_Concurrent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCatalogRepository(pool, zerolog.Nop())
	ctx := context.Background()

	productID := seedProduct(t, pool, "Last", "9.90", 1)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				return
			}
			applied, err := repo.DecrementStock(ctx, tx, model.ItemTypeProduct, productID, 1)
			if err != nil || !applied {
				_ = tx.Rollback(ctx)
				return
			}
			if tx.Commit(ctx) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	var stock int
	require.NoError(t, pool.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock))
	assert.Equal(t, 0, stock)
}

func TestCatalogRepository_RestoreStockAndSales(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewCatalogRepository(pool, zerolog.Nop())
	ctx := context.Background()

	productID := seedProduct(t, pool, "Map", "5.00", 2)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.RestoreStock(ctx, tx, model.ItemTypeProduct, productID, 3))
	require.NoError(t, repo.AddSales(ctx, tx, productID, 4))
	require.NoError(t, tx.Commit(ctx))

	p, err := repo.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 4, p.Sales)

	t.Run("sales on missing product is a persistence failure", func(t *testing.T) {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		err = repo.AddSales(ctx, tx, 9999, 1)
		assert.ErrorIs(t, err, model.ErrPersistenceFailure)
	})
}
