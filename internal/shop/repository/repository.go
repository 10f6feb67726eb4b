package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shopease/shopease/internal/shop/model"
)

// ProductStore is the persistence contract for the catalogue. The first five methods are the ones the
// bulk ingestion pipeline relies on; the rest back the interactive shop.
type ProductStore interface {
	// GenerateSample returns n synthetic products with provisional ids. Callers assign final ids.
	GenerateSample(n int) []*model.Product
	// BulkInsert writes products in a single transaction and returns the number of rows written.
	// On error nothing is written and 0 is returned.
	BulkInsert(ctx context.Context, products []*model.Product) (int, error)
	// PaginatedRead returns page (1-based) of all products ordered by id.
	PaginatedRead(ctx context.Context, page int, pageSize int) ([]*model.Product, error)
	TotalCount(ctx context.Context) (int64, error)
	// Truncate removes every product, along with the order lines that reference them.
	Truncate(ctx context.Context) error

	// Get returns *shoperrors.ErrNotFound if there is no product with the given id.
	Get(ctx context.Context, id string) (*model.Product, error)
	// All returns every product ordered by category name then product name.
	All(ctx context.Context) ([]*model.Product, error)
	// Search matches keyword case-insensitively against product and category names.
	Search(ctx context.Context, keyword string) ([]*model.Product, error)
	SearchPaginated(ctx context.Context, keyword string, page int, pageSize int) ([]*model.Product, error)
	ByCategory(ctx context.Context, categoryID string, page int, pageSize int) ([]*model.Product, error)
	// ByPriceRange returns products priced within [min, max], cheapest first.
	ByPriceRange(ctx context.Context, min decimal.Decimal, max decimal.Decimal, page int, pageSize int) ([]*model.Product, error)
	Categories(ctx context.Context) ([]*model.Category, error)
	// Insert returns *shoperrors.ErrAlreadyExists if the id is taken.
	Insert(ctx context.Context, product *model.Product) error
	UpdateStock(ctx context.Context, id string, stock int) error
	// BulkUpdateStock sets stocks[i] on ids[i] in one transaction and returns the number of products updated.
	BulkUpdateStock(ctx context.Context, ids []string, stocks []int) (int, error)
	// CreateIndexes creates PerformanceIndexes if they don't exist.
	CreateIndexes(ctx context.Context) error
}

type UserStore interface {
	// CreateUser fills in the id and creation time of user. Returns *shoperrors.ErrAlreadyExists if
	// the username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	// UserByUsername returns *shoperrors.ErrNotFound if there is no such user.
	UserByUsername(ctx context.Context, username string) (*model.User, error)
}

type OrderStore interface {
	// CreateOrder writes the order and its items and decrements stock for every item, all in one
	// transaction. Ids and creation time are filled in on success. If a product doesn't exist or
	// has too little stock nothing is written.
	CreateOrder(ctx context.Context, order *model.Order) error
	// OrdersForUser returns the orders of a user, newest first, with items and product names.
	OrdersForUser(ctx context.Context, userID int64) ([]*model.Order, error)
}

type Store interface {
	ProductStore
	UserStore
	OrderStore
}
