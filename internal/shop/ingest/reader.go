package ingest

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/common/logging"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/model"
)

// SampleSize is the number of rows of the first page kept in a ReadReport.
const SampleSize = 5

// PageReader is the part of repository.ProductStore the reader needs.
type PageReader interface {
	TotalCount(ctx context.Context) (int64, error)
	PaginatedRead(ctx context.Context, page int, pageSize int) ([]*model.Product, error)
}

type ReadReport struct {
	// Row count reported by the store before paging started
	Total int64
	// Rows actually returned across all pages
	Read   int64
	Pages  int
	Sample []*model.Product
	// The store had no products; nothing was paged
	Empty   bool
	Elapsed time.Duration
}

// Throughput is the number of products read per second.
func (r *ReadReport) Throughput() float64 {
	return perSecond(r.Read, r.Elapsed)
}

// Reader pages sequentially through every product in the store.
type Reader struct {
	store PageReader
	clock util.Clock
}

func NewReader(store PageReader) *Reader {
	return &Reader{store: store, clock: &util.DefaultClock{}}
}

// Read fetches pages 1..ceil(total/pageSize) one after the other. The first error aborts the read.
func (r *Reader) Read(ctx context.Context, pageSize int) (*ReadReport, error) {
	if pageSize < 1 {
		return nil, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "pageSize",
			Value:   pageSize,
			Message: "must be at least 1",
		})
	}
	logger := logging.ForComponent("reader")

	total, err := r.store.TotalCount(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "error counting products")
	}
	report := &ReadReport{Total: total, Sample: []*model.Product{}}
	if total == 0 {
		report.Empty = true
		return report, nil
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	logger.Infof("Reading %d products in %d pages of %d", total, pages, pageSize)
	sw := util.StartStopwatch(r.clock)
	for page := 1; page <= pages; page++ {
		products, err := r.store.PaginatedRead(ctx, page, pageSize)
		if err != nil {
			return nil, errors.WithMessagef(err, "error reading page %d of %d", page, pages)
		}
		report.Read += int64(len(products))
		report.Pages++
		if page == 1 {
			n := len(products)
			if n > SampleSize {
				n = SampleSize
			}
			report.Sample = append(report.Sample, products[:n]...)
		}
	}
	report.Elapsed = sw.Elapsed()

	logger.Infof("Read %d products in %s (%.0f products/second)", report.Read, report.Elapsed, report.Throughput())
	return report, nil
}
