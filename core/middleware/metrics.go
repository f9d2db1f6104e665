package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/EvieePy/Audra/core"
)

// Metrics records a request counter and a duration histogram. Collector
// registration happens in the load hook, so it runs exactly once per node no
// matter how many flows race the first chain build.
type Metrics struct {
	Base

	registerer prometheus.Registerer
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the node. A nil registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		registerer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audra_requests_total",
			Help: "Completed HTTP exchanges by method and status.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audra_request_duration_seconds",
			Help:    "HTTP exchange duration by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// OnLoad registers the collectors.
func (m *Metrics) OnLoad(ctx context.Context) error {
	if err := m.registerer.Register(m.requests); err != nil {
		return err
	}
	return m.registerer.Register(m.duration)
}

// Serve observes the exchange.
func (m *Metrics) Serve(ctx context.Context, scope *core.Scope, ch core.Channel) error {
	if scope.Kind != core.KindHTTP {
		return m.Next().Serve(ctx, scope, ch)
	}

	start := time.Now()
	status := 0
	wrapped := &sendInterceptor{
		Channel: ch,
		send: func(ctx context.Context, msg core.Message) error {
			if msg.Type == core.MessageResponseStart {
				status = msg.Status
			}
			return ch.Send(ctx, msg)
		},
	}

	err := m.Next().Serve(ctx, scope, wrapped)

	m.requests.WithLabelValues(scope.Method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(scope.Method).Observe(time.Since(start).Seconds())
	return err
}
