package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thywilljoshua/pdf-extract/internal/ai"
)

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	escalations   *prometheus.CounterVec
	modelCalls    *prometheus.CounterVec
	modelTokens   *prometheus.CounterVec
	runsInFlight  prometheus.Gauge
	requests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdfextract_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage", "outcome"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfextract_escalations_total",
				Help: "Deterministic results replaced by the vision fallback",
			},
			[]string{"kind"},
		),
		modelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfextract_model_calls_total",
				Help: "Model API calls",
			},
			[]string{"outcome"},
		),
		modelTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfextract_model_tokens_total",
				Help: "Tokens reported by the model provider",
			},
			[]string{"kind"},
		),
		runsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pdfextract_runs_in_flight",
				Help: "Pipeline runs currently executing",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfextract_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"endpoint", "status"},
		),
	}
	m.registry.MustRegister(m.stageDuration, m.escalations, m.modelCalls, m.modelTokens, m.runsInFlight, m.requests)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStage(stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

func (m *Metrics) Escalated(kind string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(kind).Inc()
}

// ObserveModelCall has the signature of ai.Meter.OnCall.
func (m *Metrics) ObserveModelCall(u ai.Usage, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.modelCalls.WithLabelValues(outcome).Inc()
	m.modelTokens.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	m.modelTokens.WithLabelValues("completion").Add(float64(u.CompletionTokens))
}

// RunStarted marks a run in flight and returns the func that ends it.
func (m *Metrics) RunStarted() func() {
	if m == nil {
		return func() {}
	}
	m.runsInFlight.Inc()
	return m.runsInFlight.Dec
}

func (m *Metrics) ObserveRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, status).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
