// Package metrics holds the prometheus collectors of the auth server and the
// HTTP endpoint exposing them.
package metrics

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskboard/internal/common"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskboard"

// Outcome labels of the auth_requests_total counter.
const (
	OutcomeOK                 = "ok"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeRefreshNotFound    = "refresh_not_found"
	OutcomeRefreshRevoked     = "refresh_revoked"
	OutcomeRefreshExpired     = "refresh_expired"
	OutcomeInvalidArgument    = "invalid_argument"
	OutcomeError              = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	// GRPC carries the per-method server interceptors.
	GRPC *grpcprometheus.ServerMetrics

	authRequests *prometheus.CounterVec
}

// New builds a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	grpcMetrics := grpcprometheus.NewServerMetrics()
	reg.MustRegister(grpcMetrics)

	return &Metrics{
		registry: reg,
		GRPC:     grpcMetrics,
		authRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Auth operations by operation and outcome",
		}, []string{"op", "outcome"}),
	}
}

// ObserveAuth counts one finished auth operation.
func (m *Metrics) ObserveAuth(op string, err error) {
	m.authRequests.WithLabelValues(op, Outcome(err)).Inc()
}

// AuthCount returns the counter for op and outcome. Used by tests and
// diagnostics.
func (m *Metrics) AuthCount(op, outcome string) prometheus.Counter {
	return m.authRequests.WithLabelValues(op, outcome)
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome classifies err into one of the Outcome* labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, common.ErrDuplicateIdentity):
		return OutcomeDuplicate
	case errors.Is(err, common.ErrRefreshNotFound):
		return OutcomeRefreshNotFound
	case errors.Is(err, common.ErrRefreshRevoked):
		return OutcomeRefreshRevoked
	case errors.Is(err, common.ErrRefreshExpired):
		return OutcomeRefreshExpired
	case errors.Is(err, common.ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, common.ErrorValidation):
		return OutcomeInvalidArgument
	default:
		return OutcomeError
	}
}
