package common

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/weaveworks/promrus"

	commonconfig "github.com/shopease/shopease/internal/common/config"
)

const envPrefix = "SHOPEASE"

// LoadConfig reads config.yaml from path into config, then applies any override files and finally
// SHOPEASE_* environment variables (SHOPEASE_INGEST_BATCHSIZE overrides ingest.batchSize).
// A missing config.yaml is not an error; the caller's defaults stand.
func LoadConfig(config interface{}, path string, userConfigs []string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Error(err)
			os.Exit(-1)
		}
		log.Debugf("no config.yaml found in %s, using defaults", path)
	}

	for _, userConfig := range userConfigs {
		if userConfig == "" {
			continue
		}
		v.SetConfigFile(userConfig)
		if err := v.MergeInConfig(); err != nil {
			log.Error(err)
			os.Exit(-1)
		}
	}

	bindEnvironment(v, config)

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		log.Error(err)
		os.Exit(-1)
	}
	return v
}

// AutomaticEnv only affects keys viper already knows about; registering every key present in the
// defaults makes env vars work even when no config file sets them.
func bindEnvironment(v *viper.Viper, config interface{}) {
	for _, key := range commonconfig.Keys(config) {
		_ = v.BindEnv(key)
	}
}

// ConfigureCommandLineLogging is used by shopctl: messages go to stderr so that command output on
// stdout stays clean, and timestamps are dropped.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true, ForceColors: true})
	log.SetOutput(os.Stderr)
	if level, err := log.ParseLevel(os.Getenv(envPrefix + "_LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
}

var promrusOnce sync.Once

// ServeMetricsFor exposes gatherer on /metrics and starts counting log lines by level.
// The log line counters live in the default registry.
func ServeMetricsFor(port uint16, gatherer prometheus.Gatherer) (shutdown func()) {
	promrusOnce.Do(func() {
		log.AddHook(promrus.MustNewPrometheusHook())
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return ServeHttp(port, mux)
}

func ServeHttp(port uint16, mux http.Handler) (shutdown func()) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting http server listening on %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server on port %d stopped: %v", port, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Printf("Stopping http server listening on %d", port)
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnf("error stopping http server: %v", err)
		}
	}
}
