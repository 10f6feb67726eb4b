package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/model"
)

func testMetrics() *metrics.Metrics {
	return metrics.NewMetrics(metrics.ShopEaseMetricsPrefix, prometheus.NewRegistry())
}

// seed inserts n generated products with ids P000000001 onwards.
func seed(t *testing.T, store Store, n int) []*model.Product {
	products := store.GenerateSample(n)
	for i, p := range products {
		p.ID = model.ProductID(i + 1)
	}
	inserted, err := store.BulkInsert(context.Background(), products)
	require.NoError(t, err)
	require.Equal(t, n, inserted)
	return products
}

func productIds(products []*model.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

// runStoreTests exercises the behaviour every Store implementation must share.
// newStore must return an empty, migrated store.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("bulk insert and paged read", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 25)

		count, err := store.TotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(25), count)

		page1, err := store.PaginatedRead(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, page1, 10)
		assert.Equal(t, "P000000001", page1[0].ID)
		assert.Equal(t, "P000000010", page1[9].ID)
		assert.Equal(t, "Laptop 1", page1[0].Name)
		assert.Equal(t, "CAT002", page1[0].CategoryID)
		assert.Equal(t, "Computers", page1[0].CategoryName)
		assert.True(t, decimal.RequireFromString("10.1").Equal(page1[0].Price), page1[0].Price.String())
		assert.Equal(t, 11, page1[0].Stock)

		page3, err := store.PaginatedRead(ctx, 3, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"P000000021", "P000000022", "P000000023", "P000000024", "P000000025"}, productIds(page3))

		page4, err := store.PaginatedRead(ctx, 4, 10)
		require.NoError(t, err)
		assert.Empty(t, page4)
	})

	t.Run("bulk insert skips existing ids", func(t *testing.T) {
		store := newStore(t)
		products := seed(t, store, 5)

		inserted, err := store.BulkInsert(ctx, products)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		inserted, err = store.BulkInsert(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		count, err := store.TotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("truncate", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 10)

		require.NoError(t, store.Truncate(ctx))
		count, err := store.TotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		// Truncating an empty table is fine.
		require.NoError(t, store.Truncate(ctx))
	})

	t.Run("get", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 3)

		p, err := store.Get(ctx, "P000000003")
		require.NoError(t, err)
		assert.Equal(t, "Headphones 3", p.Name)
		assert.Equal(t, "Electronics", p.CategoryName)

		_, err = store.Get(ctx, "P999999999")
		var notFound *shoperrors.ErrNotFound
		assert.True(t, errors.As(err, &notFound), "%v", err)
	})

	t.Run("search", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 25)

		byName, err := store.Search(ctx, "LAPTOP")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"P000000001", "P000000011", "P000000021"}, productIds(byName))

		byCategory, err := store.Search(ctx, "comp")
		require.NoError(t, err)
		assert.Len(t, byCategory, 9)

		paged, err := store.SearchPaginated(ctx, "laptop", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"P000000021"}, productIds(paged))

		none, err := store.Search(ctx, "nothing like this")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("all is ordered by category then name", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 6)

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 6)
		assert.Equal(t, []string{"Accessories", "Accessories", "Computers", "Computers", "Electronics", "Electronics"},
			[]string{all[0].CategoryName, all[1].CategoryName, all[2].CategoryName, all[3].CategoryName, all[4].CategoryName, all[5].CategoryName})
		// Within a category products are ordered by name.
		assert.Equal(t, "Speaker 5", all[0].Name)
		assert.Equal(t, "Tablet 2", all[1].Name)
	})

	t.Run("by category", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 25)

		products, err := store.ByCategory(ctx, "CAT001", 1, 100)
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"P000000003", "P000000006", "P000000009", "P000000012", "P000000015", "P000000018", "P000000021", "P000000024"},
			productIds(products))

		products, err = store.ByCategory(ctx, "CAT001", 2, 5)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	})

	t.Run("by price range", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 25)

		products, err := store.ByPriceRange(ctx, decimal.NewFromInt(11), decimal.NewFromInt(12), 1, 100)
		require.NoError(t, err)
		require.Len(t, products, 11)
		assert.Equal(t, "P000000010", products[0].ID)
		assert.True(t, decimal.NewFromInt(11).Equal(products[0].Price))
		assert.Equal(t, "P000000020", products[10].ID)
	})

	t.Run("categories", func(t *testing.T) {
		store := newStore(t)
		categories, err := store.Categories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 3)
		assert.Equal(t, "CAT001", categories[0].ID)
		assert.Equal(t, "Electronics", categories[0].Name)
	})

	t.Run("insert", func(t *testing.T) {
		store := newStore(t)
		product := &model.Product{
			ID:         "P1",
			Name:       "Widget",
			Price:      decimal.RequireFromString("19.99"),
			Stock:      5,
			CategoryID: "CAT003",
		}
		require.NoError(t, store.Insert(ctx, product))

		stored, err := store.Get(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, "Widget", stored.Name)
		assert.Equal(t, "", stored.Description)
		assert.True(t, decimal.RequireFromString("19.99").Equal(stored.Price), stored.Price.String())

		err = store.Insert(ctx, product)
		var alreadyExists *shoperrors.ErrAlreadyExists
		assert.True(t, errors.As(err, &alreadyExists), "%v", err)
	})

	t.Run("update stock", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 3)

		require.NoError(t, store.UpdateStock(ctx, "P000000001", 99))
		p, err := store.Get(ctx, "P000000001")
		require.NoError(t, err)
		assert.Equal(t, 99, p.Stock)

		err = store.UpdateStock(ctx, "missing", 1)
		var notFound *shoperrors.ErrNotFound
		assert.True(t, errors.As(err, &notFound), "%v", err)

		updated, err := store.BulkUpdateStock(ctx, []string{"P000000002", "missing", "P000000003"}, []int{7, 8, 9})
		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		p, err = store.Get(ctx, "P000000003")
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock)

		_, err = store.BulkUpdateStock(ctx, []string{"P000000002"}, []int{})
		var invalid *shoperrors.ErrInvalidArgument
		assert.True(t, errors.As(err, &invalid), "%v", err)
	})

	t.Run("create indexes is idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.CreateIndexes(ctx))
		require.NoError(t, store.CreateIndexes(ctx))
	})

	t.Run("users", func(t *testing.T) {
		store := newStore(t)
		user := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
		require.NoError(t, store.CreateUser(ctx, user))
		assert.True(t, user.ID > 0)

		err := store.CreateUser(ctx, &model.User{Username: "alice", Email: "other@example.com", PasswordHash: "hash"})
		var alreadyExists *shoperrors.ErrAlreadyExists
		require.True(t, errors.As(err, &alreadyExists), "%v", err)
		assert.Equal(t, "Username already exists", alreadyExists.Message)

		stored, err := store.UserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
		assert.Equal(t, "alice@example.com", stored.Email)
		assert.Equal(t, "hash", stored.PasswordHash)

		_, err = store.UserByUsername(ctx, "bob")
		var notFound *shoperrors.ErrNotFound
		assert.True(t, errors.As(err, &notFound), "%v", err)
	})

	t.Run("orders", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 3) // stock: 11, 12, 13
		user := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
		require.NoError(t, store.CreateUser(ctx, user))

		first := &model.Order{
			UserID:      user.ID,
			TotalAmount: decimal.RequireFromString("20.2"),
			CreatedAt:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			Items: []model.OrderItem{
				{ProductID: "P000000001", Quantity: 2, Price: decimal.RequireFromString("10.1")},
			},
		}
		require.NoError(t, store.CreateOrder(ctx, first))
		assert.True(t, first.ID > 0)
		assert.Equal(t, first.ID, first.Items[0].OrderID)
		assert.True(t, first.Items[0].ID > 0)

		second := &model.Order{
			UserID:      user.ID,
			TotalAmount: decimal.RequireFromString("33.5"),
			CreatedAt:   time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			Items: []model.OrderItem{
				{ProductID: "P000000002", Quantity: 1, Price: decimal.RequireFromString("10.2")},
				{ProductID: "P000000003", Quantity: 1, Price: decimal.RequireFromString("10.3")},
			},
		}
		require.NoError(t, store.CreateOrder(ctx, second))

		p, err := store.Get(ctx, "P000000001")
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock)

		orders, err := store.OrdersForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID)
		assert.Equal(t, first.ID, orders[1].ID)
		require.Len(t, orders[0].Items, 2)
		assert.Equal(t, "Tablet 2", orders[0].Items[0].ProductName)
		assert.Equal(t, 2, orders[0].TotalItems())
		assert.True(t, decimal.RequireFromString("33.5").Equal(orders[0].TotalAmount), orders[0].TotalAmount.String())

		none, err := store.OrdersForUser(ctx, user.ID+100)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("order rolls back on insufficient stock", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, 2) // stock: 11, 12
		user := &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"}
		require.NoError(t, store.CreateUser(ctx, user))

		order := &model.Order{
			UserID:      user.ID,
			TotalAmount: decimal.NewFromInt(1),
			Items: []model.OrderItem{
				{ProductID: "P000000001", Quantity: 1, Price: decimal.NewFromInt(1)},
				{ProductID: "P000000002", Quantity: 13, Price: decimal.NewFromInt(1)},
			},
		}
		err := store.CreateOrder(ctx, order)
		var insufficient *shoperrors.ErrInsufficientStock
		require.True(t, errors.As(err, &insufficient), "%v", err)
		assert.Equal(t, 12, insufficient.Available)

		// The first line's decrement was rolled back.
		p, err := store.Get(ctx, "P000000001")
		require.NoError(t, err)
		assert.Equal(t, 11, p.Stock)

		orders, err := store.OrdersForUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, orders)

		err = store.CreateOrder(ctx, &model.Order{
			UserID: user.ID,
			Items:  []model.OrderItem{{ProductID: "missing", Quantity: 1, Price: decimal.NewFromInt(1)}},
		})
		var notFound *shoperrors.ErrNotFound
		assert.True(t, errors.As(err, &notFound), "%v", err)
	})
}
