package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository"
)

// newTestStore returns a migrated sqlite store holding n generated products, P000000001 onwards.
// Product i is named after ProductTypes[i%10], costs 10 + i/10 and has 10 + i units in stock.
func newTestStore(t *testing.T, n int) repository.Store {
	config := configuration.Default()
	config.DatabasePath = filepath.Join(t.TempDir(), "shop.db")
	m := metrics.NewMetrics(metrics.ShopEaseMetricsPrefix, prometheus.NewRegistry())

	err, store, cleanup := repository.NewSQLiteStore(&config, m, log.NewEntry(log.StandardLogger()))
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, store.Setup(context.Background()))

	if n > 0 {
		products := store.GenerateSample(n)
		for i, p := range products {
			p.ID = model.ProductID(i + 1)
		}
		_, err = store.BulkInsert(context.Background(), products)
		require.NoError(t, err)
	}
	return store
}

func newTestProductService(t *testing.T, store repository.ProductStore) *ProductService {
	products, err := NewProductService(store, configuration.CatalogConfig{
		CacheSize:     16,
		CountCacheTTL: time.Minute,
	})
	require.NoError(t, err)
	return products
}
