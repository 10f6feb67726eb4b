package shopctl

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/configuration"
)

// RectifyConfig replaces invalid values in config with defaults, logging a warning for each.
// Returns a non-nil error if mis-configuration is unrecoverable.
func RectifyConfig(config *configuration.ShopConfiguration) error {
	logger := log.WithField("shopctl", "RectifyConfig")
	defaults := configuration.Default()

	warn := func(field string, configured interface{}, def interface{}) {
		logger.WithFields(log.Fields{
			"default":    def,
			"configured": configured,
		}).Warnf("config.%s invalid, using default instead", field)
	}

	config.DatabaseType = strings.ToLower(strings.TrimSpace(config.DatabaseType))
	switch config.DatabaseType {
	case "":
		warn("DatabaseType", config.DatabaseType, defaults.DatabaseType)
		config.DatabaseType = defaults.DatabaseType
	case configuration.DatabaseTypePostgres, configuration.DatabaseTypeSqlite:
	default:
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "DatabaseType",
			Value:   config.DatabaseType,
			Message: "must be either 'postgres' or 'sqlite'",
		})
	}
	if config.DatabaseType == configuration.DatabaseTypeSqlite && config.DatabasePath == "" {
		warn("DatabasePath", config.DatabasePath, defaults.DatabasePath)
		config.DatabasePath = defaults.DatabasePath
	}
	if config.DatabaseType == configuration.DatabaseTypePostgres && config.Postgres.PoolMaxConns < 1 {
		warn("Postgres.PoolMaxConns", config.Postgres.PoolMaxConns, defaults.Postgres.PoolMaxConns)
		config.Postgres.PoolMaxConns = defaults.Postgres.PoolMaxConns
	}

	ingest := &config.Ingest
	if ingest.TotalRecords < 0 {
		warn("Ingest.TotalRecords", ingest.TotalRecords, defaults.Ingest.TotalRecords)
		ingest.TotalRecords = defaults.Ingest.TotalRecords
	}
	if ingest.BatchSize < 1 {
		warn("Ingest.BatchSize", ingest.BatchSize, defaults.Ingest.BatchSize)
		ingest.BatchSize = defaults.Ingest.BatchSize
	}
	if ingest.Workers < 1 {
		warn("Ingest.Workers", ingest.Workers, defaults.Ingest.Workers)
		ingest.Workers = defaults.Ingest.Workers
	}
	if ingest.ReadPageSize < 1 {
		warn("Ingest.ReadPageSize", ingest.ReadPageSize, defaults.Ingest.ReadPageSize)
		ingest.ReadPageSize = defaults.Ingest.ReadPageSize
	}
	if ingest.ProgressEvery < 1 {
		warn("Ingest.ProgressEvery", ingest.ProgressEvery, defaults.Ingest.ProgressEvery)
		ingest.ProgressEvery = defaults.Ingest.ProgressEvery
	}

	sample := &config.Sample
	if len(sample.Categories) == 0 {
		warn("Sample.Categories", sample.Categories, defaults.Sample.Categories)
		sample.Categories = defaults.Sample.Categories
	}
	if len(sample.ProductTypes) == 0 {
		warn("Sample.ProductTypes", sample.ProductTypes, defaults.Sample.ProductTypes)
		sample.ProductTypes = defaults.Sample.ProductTypes
	}
	if sample.BasePrice.IsNegative() {
		warn("Sample.BasePrice", sample.BasePrice, defaults.Sample.BasePrice)
		sample.BasePrice = defaults.Sample.BasePrice
	}
	if sample.PriceStep.IsNegative() {
		warn("Sample.PriceStep", sample.PriceStep, defaults.Sample.PriceStep)
		sample.PriceStep = defaults.Sample.PriceStep
	}
	if sample.PriceCycle < 1 {
		warn("Sample.PriceCycle", sample.PriceCycle, defaults.Sample.PriceCycle)
		sample.PriceCycle = defaults.Sample.PriceCycle
	}
	if sample.BaseStock < 0 {
		warn("Sample.BaseStock", sample.BaseStock, defaults.Sample.BaseStock)
		sample.BaseStock = defaults.Sample.BaseStock
	}
	if sample.StockCycle < 1 {
		warn("Sample.StockCycle", sample.StockCycle, defaults.Sample.StockCycle)
		sample.StockCycle = defaults.Sample.StockCycle
	}

	catalog := &config.Catalog
	if catalog.CacheSize < 1 {
		warn("Catalog.CacheSize", catalog.CacheSize, defaults.Catalog.CacheSize)
		catalog.CacheSize = defaults.Catalog.CacheSize
	}
	if catalog.CountCacheTTL <= 0 {
		warn("Catalog.CountCacheTTL", catalog.CountCacheTTL, defaults.Catalog.CountCacheTTL)
		catalog.CountCacheTTL = defaults.Catalog.CountCacheTTL
	}
	return nil
}
