package metrics

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/config"
)

const (
	namespace = "bridge"
)

// Service owns a dedicated prometheus registry so several servers can coexist in one process (tests).
type Service struct {
	config   config.Server
	registry *prometheus.Registry

	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	inits        *prometheus.CounterVec
	lockWait     *prometheus.HistogramVec
}

func New(cfg config.Server) (*Service, error) {
	s := &Service{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Bridge calls by keyring type, method and result.",
			},
			[]string{"type", "method", "result"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Bridge call duration from receipt to result.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type", "method"},
		),
		inits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inits_total",
				Help:      "Keyring initializations by keyring type.",
			},
			[]string{"type"},
		),
		lockWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lock_wait_seconds",
				Help:      "Time a call waited for its keyring type lock.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}

	collectorsToRegister := []prometheus.Collector{s.calls, s.callDuration, s.inits, s.lockWait}
	if cfg.Management.EnableRuntimeMetrics {
		collectorsToRegister = append(collectorsToRegister,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range collectorsToRegister {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register metrics collector")
		}
	}

	return s, nil
}

func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Service) ObserveCall(t keyring.Type, method string, result bus.Result, duration time.Duration) {
	s.calls.WithLabelValues(t.String(), method, string(result)).Inc()
	s.callDuration.WithLabelValues(t.String(), method).Observe(duration.Seconds())
}

func (s *Service) ObserveLockWait(t keyring.Type, wait time.Duration) {
	s.lockWait.WithLabelValues(t.String()).Observe(wait.Seconds())
}

// ObserveInit counts a keyring initialization attempt.
func (s *Service) ObserveInit(t keyring.Type) {
	s.inits.WithLabelValues(t.String()).Inc()
}

// Middleware records HTTP request metrics into the service registry.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  namespace,
		Subsystem:  "http",
		Registerer: s.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == s.config.Management.MetricsPath
		},
	})
}

// Handler exposes the service registry.
func (s *Service) Handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.registry,
	})
}
