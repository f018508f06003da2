package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tripplanner/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the provider's Prometheus registry on its own port,
// away from the public API listener.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer mounts the registry at cfg.Path on cfg.Port. A nil
// provider or one without metrics serves only /livez.
func NewMetricsServer(cfg models.MetricsConfig, provider *Provider) *MetricsServer {
	router := mux.NewRouter()
	router.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	if registry := provider.Registry(); registry != nil {
		router.Handle(cfg.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
			EnableOpenMetrics: true,
		})).Methods(http.MethodGet)
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Addr is the listen address.
func (ms *MetricsServer) Addr() string {
	return ms.server.Addr
}

// Start blocks serving metrics. It returns http.ErrServerClosed after Shutdown.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
