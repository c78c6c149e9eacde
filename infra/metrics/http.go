package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careline/dispatch/infra/logger"
)

// StartPromServer exposes Prometheus metrics on the given address until the
// context ends. A dedicated ServeMux avoids interfering with the query API.
func StartPromServer(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prom server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NewSink builds the configured metrics stack. With nothing enabled it
// returns a NopSink so callers never need a nil check.
func NewSink(cfg Config) Sink {
	sinks := make([]Sink, 0, 2)
	if cfg.PrometheusEnabled {
		prom, err := NewPromSink()
		if err != nil {
			logger.New("metrics").Errorf("prometheus sink: %v", err)
		} else {
			sinks = append(sinks, prom)
		}
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return NopSink{}
	case 1:
		return sinks[0]
	default:
		return NewMultiSink(sinks...)
	}
}
