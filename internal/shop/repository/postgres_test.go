package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopease/shopease/internal/common/database"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/repository/schema"
)

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

func TestStoresImplementStore(t *testing.T) {
	assert.Implements(t, (*Store)(nil), new(PostgresStore))
	assert.Implements(t, (*Store)(nil), new(SQLiteStore))
}

func TestPostgresStore(t *testing.T) {
	if _, ok := database.TestPostgresConnectionString(); !ok {
		t.Skipf("%s not set", database.TestPostgresEnvVar)
	}
	migrations, err := schema.PostgresMigrations()
	require.NoError(t, err)

	err = database.WithTestDb(migrations, func(db *pgxpool.Pool) error {
		runStoreTests(t, func(t *testing.T) Store {
			_, err := db.Exec(context.Background(),
				"TRUNCATE TABLE order_items, orders, users, products RESTART IDENTITY CASCADE")
			require.NoError(t, err)
			return NewPostgresStore(db, NewSampleGenerator(configuration.Default().Sample, nil), testMetrics())
		})
		return nil
	})
	assert.NoError(t, err)
}

func TestNumericConversion(t *testing.T) {
	for _, s := range []string{"0", "10.1", "19.99", "-3.5", "1000000.25"} {
		d := decimalFromNumeric(numericFromDecimal(mustDecimal(t, s)))
		assert.True(t, mustDecimal(t, s).Equal(d), "%s != %s", s, d)
	}
}
