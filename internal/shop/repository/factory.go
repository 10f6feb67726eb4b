package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shopease/shopease/internal/common/logging"
	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/shop/configuration"
)

// Open returns the store selected by config.DatabaseType with its schema up to date, and a function
// releasing its connections.
func Open(ctx context.Context, config *configuration.ShopConfiguration, m *metrics.Metrics) (Store, func(), error) {
	logger := logging.ForComponent("repository").WithField("database", config.DatabaseType)
	switch config.DatabaseType {
	case configuration.DatabaseTypePostgres:
		err, store, cleanup := OpenPostgresStore(ctx, config, m, logger)
		if err != nil {
			return nil, cleanup, err
		}
		return store, cleanup, nil
	case configuration.DatabaseTypeSqlite:
		err, store, cleanup := NewSQLiteStore(config, m, logger)
		if err != nil {
			return nil, cleanup, err
		}
		if err := store.Setup(ctx); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		logger.Debugf("using sqlite database at %s", config.DatabasePath)
		return store, cleanup, nil
	default:
		return nil, func() {}, errors.Errorf("database type %q not recognised; must be one of %q or %q",
			config.DatabaseType, configuration.DatabaseTypePostgres, configuration.DatabaseTypeSqlite)
	}
}
