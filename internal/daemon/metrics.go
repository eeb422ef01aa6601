package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kulucloud/kulu/telemetry"
)

// MetricsServer serves the Prometheus scrape endpoint and a health probe.
type MetricsServer struct {
	server *http.Server
	daemon *Daemon
	logger *telemetry.Logger
}

// NewMetricsServer builds the HTTP server over the shared Prometheus
// registry the OTEL exporter writes into.
func NewMetricsServer(addr string, d *Daemon) *MetricsServer {
	mux := http.NewServeMux()
	m := &MetricsServer{
		daemon: d,
		logger: telemetry.NewLogger("metrics-server"),
	}

	if telemetry.PrometheusRegistry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(
			telemetry.PrometheusRegistry,
			promhttp.HandlerOpts{},
		))
	}
	mux.HandleFunc("/healthz", m.handleHealth)

	m.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m
}

func (m *MetricsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.daemon.Health()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Start serves until the context ends, then shuts down gracefully.
func (m *MetricsServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	}
}
