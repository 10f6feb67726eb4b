package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
)

// SampleGenerator synthesises products for load testing. The i-th product (1-based) of a call is a
// pure function of i and the configuration, except for the creation time.
type SampleGenerator struct {
	config configuration.SampleConfig
	clock  util.Clock
}

func NewSampleGenerator(config configuration.SampleConfig, clock util.Clock) *SampleGenerator {
	if clock == nil {
		clock = &util.DefaultClock{}
	}
	return &SampleGenerator{config: config, clock: clock}
}

func (g *SampleGenerator) GenerateSample(n int) []*model.Product {
	if n <= 0 {
		return []*model.Product{}
	}
	now := g.clock.Now().UTC()
	products := make([]*model.Product, n)
	for i := 1; i <= n; i++ {
		productType := pick(g.config.ProductTypes, i, "Product")
		products[i-1] = &model.Product{
			ID:          fmt.Sprintf("PRD%07d", i),
			Name:        fmt.Sprintf("%s %d", productType, i),
			Description: fmt.Sprintf("Sample product description for %s %d", productType, i),
			CategoryID:  pick(g.config.Categories, i, ""),
			Price:       g.config.BasePrice.Add(g.config.PriceStep.Mul(decimal.NewFromInt(int64(cycle(i, g.config.PriceCycle))))),
			Stock:       g.config.BaseStock + cycle(i, g.config.StockCycle),
			CreatedAt:   now,
		}
	}
	return products
}

func pick(values []string, i int, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[i%len(values)]
}

func cycle(i int, n int) int {
	if n <= 0 {
		return 0
	}
	return i % n
}
