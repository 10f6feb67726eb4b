package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/shopease/shopease/internal/common/logging"
	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/model"
)

// BatchWriter is the part of repository.ProductStore the inserter needs.
type BatchWriter interface {
	GenerateSample(n int) []*model.Product
	BulkInsert(ctx context.Context, products []*model.Product) (int, error)
	Truncate(ctx context.Context) error
}

type Request struct {
	// Number of products to generate
	Total int
	// Products per batch; each batch is one BulkInsert call
	BatchSize int
	// Maximum number of batches in flight
	Workers int
	// Delete every product before inserting
	Truncate bool
}

type BatchFailure struct {
	Batch BatchRange
	Err   error
}

type InsertReport struct {
	RunId     string
	Requested int
	Inserted  int64
	Batches   int
	Completed int64
	// Sorted by batch index
	Failures []BatchFailure
	Elapsed  time.Duration
}

// Throughput is the number of products inserted per second.
func (r *InsertReport) Throughput() float64 {
	return perSecond(r.Inserted, r.Elapsed)
}

// EstimatedSizeMB is a rough estimate of the space taken by the inserted rows.
func (r *InsertReport) EstimatedSizeMB() float64 {
	return float64(r.Inserted) * 0.5 / 1024 / 1024
}

// Err combines the errors of all failed batches, or returns nil if every batch succeeded.
func (r *InsertReport) Err() error {
	var result *multierror.Error
	for _, f := range r.Failures {
		result = multierror.Append(result, errors.Wrapf(f.Err, "batch %d", f.Batch.Index))
	}
	return result.ErrorOrNil()
}

// Inserter generates sample products and writes them concurrently in batches.
type Inserter struct {
	store         BatchWriter
	metrics       *metrics.Metrics
	clock         util.Clock
	progressEvery int
}

func NewInserter(store BatchWriter, metrics *metrics.Metrics, progressEvery int) *Inserter {
	if progressEvery < 1 {
		progressEvery = 1
	}
	return &Inserter{
		store:         store,
		metrics:       metrics,
		clock:         &util.DefaultClock{},
		progressEvery: progressEvery,
	}
}

// Insert writes req.Total generated products with ids P000000001 onwards.
//
// A batch that fails is logged and recorded in the report; it doesn't stop the other batches, and
// Insert still returns a nil error. Callers inspect InsertReport.Failures or InsertReport.Err.
// An error is returned only for an invalid request or a failed truncate, in which case nothing
// has been inserted.
func (i *Inserter) Insert(ctx context.Context, req Request) (*InsertReport, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	report := &InsertReport{
		RunId:     util.NewRunId(),
		Requested: req.Total,
		Failures:  []BatchFailure{},
	}
	logger := logging.ForComponent("ingest").WithField("runId", report.RunId)
	sw := util.StartStopwatch(i.clock)

	if req.Truncate {
		if err := i.store.Truncate(ctx); err != nil {
			return nil, errors.WithMessage(err, "error truncating products")
		}
		logger.Info("Products table truncated")
	}

	batches := Partition(req.Total, req.BatchSize)
	report.Batches = len(batches)
	logger.Infof("Inserting %d products in %d batches of up to %d using %d workers", req.Total, len(batches), req.BatchSize, req.Workers)

	var (
		completed    atomic.Int64
		inserted     atomic.Int64
		failuresLock sync.Mutex
	)

	g := errgroup.Group{}
	g.SetLimit(req.Workers)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			n, err := i.insertBatch(ctx, batch)
			if err != nil {
				n = 0
				logging.WithStacktrace(logger, err).Errorf("Error in batch %d: %s", batch.Index, err)
				i.metrics.RecordBatch(metrics.BatchOutcomeFailed, 0)
				failuresLock.Lock()
				report.Failures = append(report.Failures, BatchFailure{Batch: batch, Err: err})
				failuresLock.Unlock()
			} else {
				i.metrics.RecordBatch(metrics.BatchOutcomeSucceeded, n)
			}
			total := inserted.Add(int64(n))
			done := completed.Add(1)
			if done%int64(i.progressEvery) == 0 || done == int64(len(batches)) {
				logger.WithFields(log.Fields{"batch": done, "batches": len(batches)}).
					Infof("Batch %d/%d completed (%.1f%%) - Inserted: %d products",
						done, len(batches), float64(done)*100/float64(len(batches)), total)
			}
			// Failures are recorded in the report; the other batches carry on.
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Failures, func(a, b BatchFailure) bool {
		return a.Batch.Index < b.Batch.Index
	})
	report.Inserted = inserted.Load()
	report.Completed = completed.Load()
	report.Elapsed = sw.Elapsed()

	logger.Infof("Insert completed: %d of %d products in %s (%.0f products/second, %d failed batches)",
		report.Inserted, report.Requested, report.Elapsed, report.Throughput(), len(report.Failures))
	return report, nil
}

func (i *Inserter) insertBatch(ctx context.Context, batch BatchRange) (int, error) {
	products := i.store.GenerateSample(batch.Size())
	if len(products) != batch.Size() {
		return 0, errors.Errorf("generated %d products, expected %d", len(products), batch.Size())
	}
	for k, p := range products {
		p.ID = model.ProductID(batch.Start + k + 1)
	}
	return i.store.BulkInsert(ctx, products)
}

func validate(req Request) error {
	if req.Total < 0 {
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "total",
			Value:   req.Total,
			Message: "must not be negative",
		})
	}
	if req.BatchSize < 1 {
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "batchSize",
			Value:   req.BatchSize,
			Message: "must be at least 1",
		})
	}
	if req.Workers < 1 {
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "workers",
			Value:   req.Workers,
			Message: "must be at least 1",
		})
	}
	return nil
}

func perSecond(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}
