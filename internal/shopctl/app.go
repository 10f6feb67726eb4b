package shopctl

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shopease/shopease/internal/common"
	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/repository"
	"github.com/shopease/shopease/internal/shop/service"
)

const (
	OutputTable = "table"
	OutputYaml  = "yaml"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the applications's output.
	Out io.Writer
	// In is read by the interactive shell. Defaults to standard in.
	In io.Reader
}

// Params holds the configuration loaded from config.yaml, environment variables and flags, in
// increasing order of precedence.
type Params struct {
	Config configuration.ShopConfiguration
	// Either OutputTable or OutputYaml
	OutputFormat string
}

// New instantiates an App with default parameters, reading from standard in and writing to standard out.
func New() *App {
	return &App{
		Params: &Params{
			Config:       configuration.Default(),
			OutputFormat: OutputTable,
		},
		Out: os.Stdout,
		In:  os.Stdin,
	}
}

// shop is everything a command needs, wired to one store.
type shop struct {
	store    repository.Store
	metrics  *metrics.Metrics
	products *service.ProductService
	auth     *service.AuthService
	orders   *service.OrderService
}

// withShop opens the configured store, runs action and closes the store again.
// The metrics endpoint, if enabled, is up for as long as action runs.
func (a *App) withShop(ctx context.Context, action func(s *shop) error) error {
	registry := prometheus.NewRegistry()
	if port := a.Params.Config.MetricsPort; port != 0 {
		shutdown := common.ServeMetricsFor(port, registry)
		defer shutdown()
	}

	s, cleanup, err := a.openShop(ctx, registry)
	defer cleanup()
	if err != nil {
		return err
	}
	return action(s)
}

// openShop wires the services to a store opened from the configuration, registering the
// store's metrics on reg. The returned cleanup must be called even if err is non-nil.
func (a *App) openShop(ctx context.Context, reg prometheus.Registerer) (*shop, func(), error) {
	config := &a.Params.Config
	m := metrics.NewMetrics(metrics.ShopEaseMetricsPrefix, reg)
	store, cleanup, err := repository.Open(ctx, config, m)
	if err != nil {
		return nil, cleanup, err
	}
	products, err := service.NewProductService(store, config.Catalog)
	if err != nil {
		return nil, cleanup, err
	}
	return &shop{
		store:    store,
		metrics:  m,
		products: products,
		auth:     service.NewAuthService(store),
		orders:   service.NewOrderService(store, products),
	}, cleanup, nil
}
