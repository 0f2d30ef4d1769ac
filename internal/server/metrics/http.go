package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/logging"
)

const healthTimeout = 500 * time.Millisecond

// BootstrapMetricsServer starts serving /metrics and /healthz on addr in the
// background. The caller owns shutdown of the returned server.
func BootstrapMetricsServer(ctx context.Context, addr string, m *Metrics, health func(context.Context) error, l logging.Logger) *http.Server {
	ms := createMetricsServer(addr, m.Handler(), health)
	l = l.With("module", "metrics_server")

	go func() {
		l.Info(ctx, "metrics listening", "addr", addr)
		if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(ctx, "metrics server error", "error", err)
		}
	}()

	return ms
}

func createMetricsServer(addr string, metricsHandler http.Handler, health func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := health(ctx); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
