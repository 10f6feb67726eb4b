package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics("test_", prometheus.NewRegistry())

	m.RecordDBError(DBOperationInsert)
	m.RecordDBError(DBOperationInsert)
	m.RecordDBError(DBOperationRead)
	m.RecordBatch(BatchOutcomeSucceeded, 10)
	m.RecordBatch(BatchOutcomeFailed, 0)
	m.RecordRowsRead(25)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dbErrorsCounter.WithLabelValues("insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbErrorsCounter.WithLabelValues("read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchesCounter.WithLabelValues("failed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.rowsInsertedCounter))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.rowsReadCounter))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("test_", prometheus.NewRegistry())
		NewMetrics("test_", prometheus.NewRegistry())
	})
}
