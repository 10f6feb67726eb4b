package shopctl

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopease/shopease/internal/shop/ingest"
	"github.com/shopease/shopease/internal/shop/repository"
)

type SeedOptions struct {
	Count     int
	BatchSize int
	Workers   int
	Truncate  bool
}

// SeedOptions returns the seed options given by the configuration.
func (a *App) SeedOptions() SeedOptions {
	return SeedOptions{
		Count:     a.Params.Config.Ingest.TotalRecords,
		BatchSize: a.Params.Config.Ingest.BatchSize,
		Workers:   a.Params.Config.Ingest.Workers,
	}
}

// SeedProducts inserts generated products. Failed batches are reported but don't make the command fail;
// everything else that did get written stays.
func (a *App) SeedProducts(ctx context.Context, opts SeedOptions) error {
	return a.withShop(ctx, func(s *shop) error {
		return a.seed(ctx, s, opts)
	})
}

func (a *App) seed(ctx context.Context, s *shop, opts SeedOptions) error {
	v := view{a.Out}
	v.title("Starting bulk insert")
	fmt.Fprintf(a.Out, "   Total Products: %d\n", opts.Count)
	fmt.Fprintf(a.Out, "   Batch Size: %d\n", opts.BatchSize)
	fmt.Fprintf(a.Out, "   Parallel Workers: %d\n", opts.Workers)
	if opts.Truncate {
		v.warning("Truncating products table before insert...")
	}

	inserter := ingest.NewInserter(s.store, s.metrics, a.Params.Config.Ingest.ProgressEvery)
	report, err := inserter.Insert(ctx, ingest.Request{
		Total:     opts.Count,
		BatchSize: opts.BatchSize,
		Workers:   opts.Workers,
		Truncate:  opts.Truncate,
	})
	s.products.Invalidate()
	if err != nil {
		return err
	}
	v.insertReport(report)
	return nil
}

func (a *App) ReadProducts(ctx context.Context, pageSize int) error {
	return a.withShop(ctx, func(s *shop) error {
		return a.read(ctx, s, pageSize)
	})
}

func (a *App) read(ctx context.Context, s *shop, pageSize int) error {
	view{a.Out}.title("Reading all products")
	report, err := ingest.NewReader(s.store).Read(ctx, pageSize)
	if err != nil {
		return err
	}
	view{a.Out}.readReport(report)
	return nil
}

func (a *App) ProbeProducts(ctx context.Context) error {
	return a.withShop(ctx, func(s *shop) error {
		return a.probe(ctx, s)
	})
}

func (a *App) probe(ctx context.Context, s *shop) error {
	view{a.Out}.title("Testing reading performance")
	report, err := ingest.NewProber(s.store).Probe(ctx)
	if err != nil {
		return err
	}
	view{a.Out}.probeReport(report)
	return nil
}

// CreateIndexes creates the performance indexes on the products table. With dryRun the statements
// are only printed.
func (a *App) CreateIndexes(ctx context.Context, dryRun bool) error {
	if dryRun {
		a.printIndexes()
		return nil
	}
	return a.withShop(ctx, func(s *shop) error {
		return a.createIndexes(ctx, s)
	})
}

func (a *App) printIndexes() {
	view{a.Out}.title("Recommended indexes for large product tables:")
	for _, stmt := range repository.PerformanceIndexes() {
		fmt.Fprintf(a.Out, "   %s;\n", stmt)
	}
}

func (a *App) createIndexes(ctx context.Context, s *shop) error {
	a.printIndexes()
	if err := s.store.CreateIndexes(ctx); err != nil {
		return err
	}
	view{a.Out}.success("Indexes created.")
	return nil
}

func (a *App) TruncateProducts(ctx context.Context) error {
	return a.withShop(ctx, func(s *shop) error {
		if err := s.store.Truncate(ctx); err != nil {
			return err
		}
		view{a.Out}.success("Products table truncated.")
		return nil
	})
}

func (a *App) ListProducts(ctx context.Context, page int, pageSize int) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.Paginated(ctx, page, pageSize)
		if err != nil {
			return err
		}
		info, err := s.products.Pagination(ctx, page, pageSize)
		if err != nil {
			return err
		}
		v := view{a.Out}
		v.products(products)
		v.pagination(info)
		return nil
	})
}

func (a *App) SearchProducts(ctx context.Context, keyword string, page int, pageSize int) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.SearchPaginated(ctx, keyword, page, pageSize)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			view{a.Out}.message("No products found matching '%s'", keyword)
			return nil
		}
		view{a.Out}.products(products)
		return nil
	})
}

func (a *App) ProductsByCategory(ctx context.Context, categoryID string, page int, pageSize int) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.ByCategory(ctx, categoryID, page, pageSize)
		if err != nil {
			return err
		}
		view{a.Out}.products(products)
		return nil
	})
}

func (a *App) ProductsByPrice(ctx context.Context, min decimal.Decimal, max decimal.Decimal, page int, pageSize int) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.ByPriceRange(ctx, min, max, page, pageSize)
		if err != nil {
			return err
		}
		view{a.Out}.products(products)
		return nil
	})
}

func (a *App) Categories(ctx context.Context) error {
	return a.withShop(ctx, func(s *shop) error {
		categories, err := s.products.Categories(ctx)
		if err != nil {
			return err
		}
		rows := make([][]interface{}, len(categories))
		for i, c := range categories {
			rows[i] = []interface{}{c.ID, c.Name, c.Description}
		}
		view{a.Out}.table([]interface{}{"Code", "Name", "Description"}, rows)
		return nil
	})
}

func (a *App) GetProduct(ctx context.Context, id string) error {
	return a.withShop(ctx, func(s *shop) error {
		product, err := s.products.Get(ctx, id)
		if err != nil {
			return err
		}
		return view{a.Out}.product(product, a.Params.OutputFormat)
	})
}

func (a *App) UpdateStock(ctx context.Context, id string, stock int) error {
	return a.withShop(ctx, func(s *shop) error {
		if err := s.products.UpdateStock(ctx, id, stock); err != nil {
			return err
		}
		view{a.Out}.success("Stock of %s set to %d", id, stock)
		return nil
	})
}

// AllProducts lists the whole catalogue ordered by category, without paging.
func (a *App) AllProducts(ctx context.Context) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.All(ctx)
		if err != nil {
			return err
		}
		view{a.Out}.products(products)
		return nil
	})
}

// SearchAllProducts lists every match for keyword, without paging.
func (a *App) SearchAllProducts(ctx context.Context, keyword string) error {
	return a.withShop(ctx, func(s *shop) error {
		products, err := s.products.Search(ctx, keyword)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			view{a.Out}.message("No products found matching '%s'", keyword)
			return nil
		}
		view{a.Out}.products(products)
		return nil
	})
}
