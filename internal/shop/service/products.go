package service

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

const totalCountKey = "products"

type PaginationInfo struct {
	Page        int
	PageSize    int
	TotalItems  int64
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// ProductService is the catalogue as seen by the shop. Single products are cached until their stock
// changes through this service; the product count is cached for a short time.
type ProductService struct {
	store  repository.ProductStore
	cache  *lru.Cache
	counts *cache.Cache
}

func NewProductService(store repository.ProductStore, config configuration.CatalogConfig) (*ProductService, error) {
	size := config.CacheSize
	if size < 1 {
		size = 1
	}
	productCache, err := lru.New(size)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &ProductService{
		store:  store,
		cache:  productCache,
		counts: cache.New(config.CountCacheTTL, 2*config.CountCacheTTL),
	}, nil
}

// ClampPage brings page and pageSize into the supported range.
func ClampPage(page int, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ClampPriceRange makes min non-negative and max at least min.
func ClampPriceRange(min decimal.Decimal, max decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if min.IsNegative() {
		min = decimal.Zero
	}
	if max.LessThan(min) {
		max = min
	}
	return min, max
}

func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.(*model.Product), nil
	}
	product, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, product)
	return product, nil
}

func (s *ProductService) All(ctx context.Context) ([]*model.Product, error) {
	return s.store.All(ctx)
}

func (s *ProductService) Search(ctx context.Context, keyword string) ([]*model.Product, error) {
	return s.store.Search(ctx, keyword)
}

func (s *ProductService) Paginated(ctx context.Context, page int, pageSize int) ([]*model.Product, error) {
	page, pageSize = ClampPage(page, pageSize)
	return s.store.PaginatedRead(ctx, page, pageSize)
}

func (s *ProductService) SearchPaginated(ctx context.Context, keyword string, page int, pageSize int) ([]*model.Product, error) {
	page, pageSize = ClampPage(page, pageSize)
	return s.store.SearchPaginated(ctx, keyword, page, pageSize)
}

func (s *ProductService) ByCategory(ctx context.Context, categoryID string, page int, pageSize int) ([]*model.Product, error) {
	page, pageSize = ClampPage(page, pageSize)
	return s.store.ByCategory(ctx, categoryID, page, pageSize)
}

func (s *ProductService) ByPriceRange(ctx context.Context, min decimal.Decimal, max decimal.Decimal, page int, pageSize int) ([]*model.Product, error) {
	page, pageSize = ClampPage(page, pageSize)
	min, max = ClampPriceRange(min, max)
	return s.store.ByPriceRange(ctx, min, max, page, pageSize)
}

// Categories returns every category ordered by name.
func (s *ProductService) Categories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(categories, func(a, b *model.Category) bool {
		return a.Name < b.Name
	})
	return categories, nil
}

func (s *ProductService) UpdateStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "stock",
			Value:   stock,
			Message: "must not be negative",
		})
	}
	defer s.cache.Remove(id)
	return s.store.UpdateStock(ctx, id, stock)
}

// BulkUpdateStock sets stocks[i] on ids[i]. The slices must have the same length.
func (s *ProductService) BulkUpdateStock(ctx context.Context, ids []string, stocks []int) (int, error) {
	if len(ids) != len(stocks) {
		return 0, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "stocks",
			Value:   len(stocks),
			Message: "Product codes and stock quantities must have the same size",
		})
	}
	if i := slices.IndexFunc(stocks, func(stock int) bool { return stock < 0 }); i >= 0 {
		return 0, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "stock",
			Value:   stocks[i],
			Message: "must not be negative",
		})
	}
	defer s.Forget(ids...)
	return s.store.BulkUpdateStock(ctx, ids, stocks)
}

func (s *ProductService) TotalCount(ctx context.Context) (int64, error) {
	if cached, ok := s.counts.Get(totalCountKey); ok {
		return cached.(int64), nil
	}
	count, err := s.store.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	s.counts.SetDefault(totalCountKey, count)
	return count, nil
}

// Pagination describes page of the whole catalogue, after clamping.
func (s *ProductService) Pagination(ctx context.Context, page int, pageSize int) (*PaginationInfo, error) {
	page, pageSize = ClampPage(page, pageSize)
	total, err := s.TotalCount(ctx)
	if err != nil {
		return nil, err
	}
	return NewPaginationInfo(page, pageSize, total), nil
}

func NewPaginationInfo(page int, pageSize int, total int64) *PaginationInfo {
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &PaginationInfo{
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}

// Forget drops products from the cache, e.g., after their stock changed elsewhere.
func (s *ProductService) Forget(ids ...string) {
	for _, id := range ids {
		s.cache.Remove(id)
	}
}

// Invalidate empties both caches. Call it after bulk changes to the catalogue.
func (s *ProductService) Invalidate() {
	s.cache.Purge()
	s.counts.Flush()
}
