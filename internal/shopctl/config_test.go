package shopctl

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/configuration"
)

func TestRectifyConfig(t *testing.T) {
	defaults := configuration.Default()
	with := func(modify func(c *configuration.ShopConfiguration)) *configuration.ShopConfiguration {
		c := configuration.Default()
		modify(&c)
		return &c
	}

	testCases := []struct {
		name           string
		config         *configuration.ShopConfiguration
		expectedConfig *configuration.ShopConfiguration
	}{
		{
			name:           "S'all good",
			config:         with(func(c *configuration.ShopConfiguration) {}),
			expectedConfig: &defaults,
		},
		{
			name:           "Database type is normalised",
			config:         with(func(c *configuration.ShopConfiguration) { c.DatabaseType = " SQLite " }),
			expectedConfig: &defaults,
		},
		{
			name:           "Missing database type",
			config:         with(func(c *configuration.ShopConfiguration) { c.DatabaseType = "" }),
			expectedConfig: &defaults,
		},
		{
			name:           "Missing sqlite path",
			config:         with(func(c *configuration.ShopConfiguration) { c.DatabasePath = "" }),
			expectedConfig: &defaults,
		},
		{
			name: "Invalid ingest settings",
			config: with(func(c *configuration.ShopConfiguration) {
				c.Ingest.TotalRecords = -1
				c.Ingest.BatchSize = 0
				c.Ingest.Workers = -3
				c.Ingest.ReadPageSize = 0
				c.Ingest.ProgressEvery = 0
			}),
			expectedConfig: &defaults,
		},
		{
			name: "Invalid sample settings",
			config: with(func(c *configuration.ShopConfiguration) {
				c.Sample.Categories = nil
				c.Sample.ProductTypes = []string{}
				c.Sample.BasePrice = decimal.NewFromInt(-1)
				c.Sample.PriceStep = decimal.NewFromInt(-1)
				c.Sample.PriceCycle = 0
				c.Sample.BaseStock = -1
				c.Sample.StockCycle = 0
			}),
			expectedConfig: &defaults,
		},
		{
			name: "Invalid catalog settings",
			config: with(func(c *configuration.ShopConfiguration) {
				c.Catalog.CacheSize = 0
				c.Catalog.CountCacheTTL = -time.Second
			}),
			expectedConfig: &defaults,
		},
		{
			name: "Postgres pool size",
			config: with(func(c *configuration.ShopConfiguration) {
				c.DatabaseType = configuration.DatabaseTypePostgres
				c.Postgres.PoolMaxConns = 0
			}),
			expectedConfig: with(func(c *configuration.ShopConfiguration) {
				c.DatabaseType = configuration.DatabaseTypePostgres
			}),
		},
		{
			name: "Valid non-default values are kept",
			config: with(func(c *configuration.ShopConfiguration) {
				c.Ingest.BatchSize = 7
				c.Ingest.Workers = 1
			}),
			expectedConfig: with(func(c *configuration.ShopConfiguration) {
				c.Ingest.BatchSize = 7
				c.Ingest.Workers = 1
			}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := RectifyConfig(tc.config)
			require.NoError(t, err)
			require.Equal(t, tc.expectedConfig, tc.config)
		})
	}
}

func TestRectifyConfig_UnknownDatabaseType(t *testing.T) {
	config := configuration.Default()
	config.DatabaseType = "oracle"

	err := RectifyConfig(&config)
	var invalid *shoperrors.ErrInvalidArgument
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "DatabaseType", invalid.Name)
}
