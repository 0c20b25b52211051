package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type loopMetrics struct {
	cycles      prometheus.Counter
	idleCycles  prometheus.Counter
	staleCycles prometheus.Counter
	rxFrames    prometheus.Counter
	rxDropped   prometheus.Counter
	rxErrors    prometheus.Counter
	crisp       prometheus.Gauge
	fired       prometheus.Gauge
	stepSeconds prometheus.Histogram
}

func newLoopMetrics(reg prometheus.Registerer) *loopMetrics {
	f := promauto.With(reg)
	return &loopMetrics{
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_cycles_total",
			Help: "The total number of control cycles transmitted",
		}),
		idleCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_idle_cycles_total",
			Help: "The total number of cycles in which no terminal rule fired",
		}),
		staleCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_stale_cycles_total",
			Help: "The total number of cycles sent disabled because sensor data was stale",
		}),
		rxFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_rx_sensor_frames_total",
			Help: "The total number of sensor frames decoded",
		}),
		rxDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_rx_dropped_total",
			Help: "The total number of sensor samples dropped because the control loop was busy",
		}),
		rxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "fuzzysteer_rx_errors_total",
			Help: "The total number of receive or decode errors",
		}),
		crisp: f.NewGauge(prometheus.GaugeOpts{
			Name: "fuzzysteer_crisp_output",
			Help: "The crisp output of the last cycle",
		}),
		fired: f.NewGauge(prometheus.GaugeOpts{
			Name: "fuzzysteer_rules_fired",
			Help: "The number of terminal rules with a nonzero degree in the last cycle",
		}),
		stepSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fuzzysteer_step_seconds",
			Help:    "Duration of one table evaluation",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
	}
}

// serveMetrics exposes reg on addr until ctx ends.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
