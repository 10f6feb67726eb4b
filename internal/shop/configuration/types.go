package configuration

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DatabaseTypePostgres = "postgres"
	DatabaseTypeSqlite   = "sqlite"
)

type PostgresConfig struct {
	PoolMaxConns        int32
	PoolMaxConnLifetime time.Duration
	Connection          map[string]string
}

type IngestConfig struct {
	// Number of products the seed operation generates when no count is given
	TotalRecords int
	// Rows per bulk insert; each batch is written in its own transaction
	BatchSize int
	// Number of batches in flight at once
	Workers int
	// Page size used when reading every product back
	ReadPageSize int
	// A progress line is logged every ProgressEvery completed batches
	ProgressEvery int
}

// SampleConfig drives the synthetic products. Row i of a batch gets
// ProductTypes[i%len], Categories[i%len], BasePrice + (i%PriceCycle)*PriceStep and BaseStock + i%StockCycle.
type SampleConfig struct {
	Categories   []string
	ProductTypes []string
	BasePrice    decimal.Decimal
	PriceStep    decimal.Decimal
	PriceCycle   int
	BaseStock    int
	StockCycle   int
}

type CatalogConfig struct {
	// Number of products kept in the lookup cache
	CacheSize int
	// How long a product count is reused before asking the database again
	CountCacheTTL time.Duration
}

type ShopConfiguration struct {
	// Type of database used - must be either 'postgres' or 'sqlite'
	DatabaseType string
	// Path of the sqlite database file; may start with ~. Only read when DatabaseType is 'sqlite'
	DatabasePath string
	// Ignored unless DatabaseType is 'postgres'
	Postgres PostgresConfig

	Ingest  IngestConfig
	Sample  SampleConfig
	Catalog CatalogConfig

	// Port for the prometheus endpoint; 0 disables it
	MetricsPort uint16
}

// Default returns the configuration used when no config file overrides it.
func Default() ShopConfiguration {
	return ShopConfiguration{
		DatabaseType: DatabaseTypeSqlite,
		DatabasePath: "~/.shopease/shop.db",
		Postgres: PostgresConfig{
			PoolMaxConns:        8,
			PoolMaxConnLifetime: 30 * time.Minute,
			Connection: map[string]string{
				"host":     "localhost",
				"port":     "5432",
				"user":     "eshop",
				"password": "eshop",
				"dbname":   "eshop",
				"sslmode":  "disable",
			},
		},
		Ingest: IngestConfig{
			TotalRecords:  10_000_000,
			BatchSize:     10_000,
			Workers:       4,
			ReadPageSize:  10_000,
			ProgressEvery: 10,
		},
		Sample: SampleConfig{
			Categories: []string{"CAT001", "CAT002", "CAT003"},
			ProductTypes: []string{
				"Smartphone", "Laptop", "Tablet", "Headphones", "Camera",
				"Speaker", "Watch", "Keyboard", "Mouse", "Monitor",
			},
			BasePrice:  decimal.NewFromInt(10),
			PriceStep:  decimal.New(1, -1),
			PriceCycle: 1000,
			BaseStock:  10,
			StockCycle: 100,
		},
		Catalog: CatalogConfig{
			CacheSize:     1024,
			CountCacheTTL: 5 * time.Second,
		},
	}
}
