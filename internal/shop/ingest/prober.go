package ingest

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/model"
)

var (
	DefaultProbePageSizes   = []int{50, 100, 500, 1000}
	DefaultProbeSearchTerms = []string{"Smartphone", "Laptop", "Electronics"}
)

const probeSearchPageSize = 100

// ProbeReader is the part of repository.ProductStore the prober needs.
type ProbeReader interface {
	PageReader
	SearchPaginated(ctx context.Context, keyword string, page int, pageSize int) ([]*model.Product, error)
}

type PageTiming struct {
	PageSize int
	Rows     int
	Elapsed  time.Duration
}

func (t PageTiming) Throughput() float64 {
	return perSecond(int64(t.Rows), t.Elapsed)
}

type SearchTiming struct {
	Term    string
	Results int
	Elapsed time.Duration
}

type ProbeReport struct {
	Total    int64
	Empty    bool
	Pages    []PageTiming
	Searches []SearchTiming
}

// Prober times single page reads and searches, to compare page sizes and check the effect of indexes.
type Prober struct {
	store       ProbeReader
	clock       util.Clock
	pageSizes   []int
	searchTerms []string
}

func NewProber(store ProbeReader) *Prober {
	return &Prober{
		store:       store,
		clock:       &util.DefaultClock{},
		pageSizes:   DefaultProbePageSizes,
		searchTerms: DefaultProbeSearchTerms,
	}
}

// Probe reads the first page for every probe page size, then the first page of results for every
// search term. Nothing is timed if the store is empty.
func (p *Prober) Probe(ctx context.Context) (*ProbeReport, error) {
	total, err := p.store.TotalCount(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "error counting products")
	}
	report := &ProbeReport{Total: total, Pages: []PageTiming{}, Searches: []SearchTiming{}}
	if total == 0 {
		report.Empty = true
		return report, nil
	}

	for _, pageSize := range p.pageSizes {
		sw := util.StartStopwatch(p.clock)
		products, err := p.store.PaginatedRead(ctx, 1, pageSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "error reading page of %d", pageSize)
		}
		report.Pages = append(report.Pages, PageTiming{
			PageSize: pageSize,
			Rows:     len(products),
			Elapsed:  sw.Elapsed(),
		})
	}

	for _, term := range p.searchTerms {
		sw := util.StartStopwatch(p.clock)
		products, err := p.store.SearchPaginated(ctx, term, 1, probeSearchPageSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "error searching for %q", term)
		}
		report.Searches = append(report.Searches, SearchTiming{
			Term:    term,
			Results: len(products),
			Elapsed: sw.Elapsed(),
		})
	}
	return report, nil
}
