package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type (
	DBOperation  string
	BatchOutcome string
)

const (
	DBOperationRead            DBOperation  = "read"
	DBOperationInsert          DBOperation  = "insert"
	DBOperationUpdate          DBOperation  = "update"
	DBOperationTruncate        DBOperation  = "truncate"
	DBOperationCreateTempTable DBOperation  = "create_temp_table"
	BatchOutcomeSucceeded      BatchOutcome = "succeeded"
	BatchOutcomeFailed         BatchOutcome = "failed"
)

const ShopEaseMetricsPrefix = "shopease_"

type Metrics struct {
	dbErrorsCounter     *prometheus.CounterVec
	batchesCounter      *prometheus.CounterVec
	rowsInsertedCounter prometheus.Counter
	rowsReadCounter     prometheus.Counter
}

// NewMetrics registers the counters on reg. Pass prometheus.NewRegistry() in tests so that
// several instances can coexist.
func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		dbErrorsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "db_errors",
			Help: "Number of database errors grouped by database operation",
		}, []string{"operation"}),
		batchesCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "ingest_batches",
			Help: "Number of bulk insert batches grouped by outcome",
		}, []string{"outcome"}),
		rowsInsertedCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "ingest_rows_inserted",
			Help: "Number of product rows written by bulk inserts",
		}),
		rowsReadCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "read_rows",
			Help: "Number of product rows returned by paged reads",
		}),
	}
}

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrorsCounter.With(map[string]string{"operation": string(operation)}).Inc()
}

func (m *Metrics) RecordBatch(outcome BatchOutcome, rows int) {
	m.batchesCounter.With(map[string]string{"outcome": string(outcome)}).Inc()
	if rows > 0 {
		m.rowsInsertedCounter.Add(float64(rows))
	}
}

func (m *Metrics) RecordRowsRead(rows int) {
	if rows > 0 {
		m.rowsReadCounter.Add(float64(rows))
	}
}
