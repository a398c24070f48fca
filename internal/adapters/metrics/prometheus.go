package metrics

import (
	"net/http"
	"releasebot/internal/core/port"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "releasebot"

// Prometheus records dispatcher and HTTP events in its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	dispatchTotal        *prometheus.CounterVec
	handlerDuration      *prometheus.HistogramVec
	handlerErrors        *prometheus.CounterVec
	followUpTotal        *prometheus.CounterVec
	followUpsInFlight    prometheus.Gauge
	verificationFailures prometheus.Counter
	httpRequests         *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "dispatch_total", Help: "interactions dispatched by outcome"},
			[]string{"command", "outcome"},
		),
		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "command handler run time.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command"},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "handler_errors_total", Help: "failed command handlers"},
			[]string{"command"},
		),
		followUpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "followup_total", Help: "follow-ups by outcome"},
			[]string{"outcome"},
		),
		followUpsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "followups_in_flight", Help: "follow-ups waiting on their handler"},
		),
		verificationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "verification_failures_total", Help: "rejected request signatures"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.dispatchTotal,
		p.handlerDuration,
		p.handlerErrors,
		p.followUpTotal,
		p.followUpsInFlight,
		p.verificationFailures,
		p.httpRequests,
	)

	return p
}

func (p *Prometheus) DispatchObserved(command string, outcome port.Outcome) {
	p.dispatchTotal.WithLabelValues(command, string(outcome)).Inc()
}

func (p *Prometheus) HandlerCompleted(command string, elapsed time.Duration, err error) {
	p.handlerDuration.WithLabelValues(command).Observe(elapsed.Seconds())
	if err != nil {
		p.handlerErrors.WithLabelValues(command).Inc()
	}
}

func (p *Prometheus) FollowUpObserved(outcome port.Outcome) {
	p.followUpTotal.WithLabelValues(string(outcome)).Inc()
}

func (p *Prometheus) FollowUpsInFlight(n int) {
	p.followUpsInFlight.Set(float64(n))
}

func (p *Prometheus) VerificationFailed() {
	p.verificationFailures.Inc()
}

// Handler serves the registry for scraping.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Collect counts every request except scrapes of the metrics endpoint itself.
func (p *Prometheus) Collect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			if r.URL.Path == "/metrics" {
				return
			}

			p.httpRequests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method).Inc()
		}()

		next.ServeHTTP(ww, r)
	})
}

var _ port.Observer = (*Prometheus)(nil)
