package ingest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository"
)

// fakeStore keeps products in memory. failIf, if set, is consulted before every bulk insert.
type fakeStore struct {
	*repository.SampleGenerator
	mu          sync.Mutex
	products    map[string]*model.Product
	failIf      func(products []*model.Product) error
	truncateErr error
	readErr     error
	insertCalls atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	delay       time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		SampleGenerator: repository.NewSampleGenerator(configuration.Default().Sample, nil),
		products:        map[string]*model.Product{},
	}
}

func (s *fakeStore) BulkInsert(ctx context.Context, products []*model.Product) (int, error) {
	s.insertCalls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.maxInFlight.Load()
		if n <= peak || s.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.failIf != nil {
		if err := s.failIf(products); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, p := range products {
		if _, ok := s.products[p.ID]; !ok {
			s.products[p.ID] = p
			inserted++
		}
	}
	return inserted, nil
}

func (s *fakeStore) Truncate(context.Context) error {
	if s.truncateErr != nil {
		return s.truncateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = map[string]*model.Product{}
	return nil
}

func (s *fakeStore) TotalCount(context.Context) (int64, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.products)), nil
}

func (s *fakeStore) sorted() []*model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]*model.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func page(products []*model.Product, page int, pageSize int) []*model.Product {
	start := (page - 1) * pageSize
	if start >= len(products) {
		return []*model.Product{}
	}
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func (s *fakeStore) PaginatedRead(_ context.Context, p int, pageSize int) ([]*model.Product, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return page(s.sorted(), p, pageSize), nil
}

func (s *fakeStore) SearchPaginated(_ context.Context, keyword string, p int, pageSize int) ([]*model.Product, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	matches := []*model.Product{}
	for _, product := range s.sorted() {
		if strings.Contains(strings.ToLower(product.Name), strings.ToLower(keyword)) {
			matches = append(matches, product)
		}
	}
	return page(matches, p, pageSize), nil
}

var errBoom = errors.New("boom")
