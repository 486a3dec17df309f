package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	providerTotal   *prom.CounterVec
	providerSeconds *prom.HistogramVec
	rowsProcessed   prom.Counter
	changeOps       *prom.CounterVec
}

func (p *promRecorder) IncProviderCall(provider string, success bool) {
	p.providerTotal.WithLabelValues(provider, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveProviderSeconds(provider string, success bool, seconds float64) {
	p.providerSeconds.WithLabelValues(provider, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) AddRowsProcessed(n int) {
	p.rowsProcessed.Add(float64(n))
}

func (p *promRecorder) IncChangeOp(op string, success bool) {
	p.changeOps.WithLabelValues(op, fmt.Sprintf("%t", success)).Inc()
}

func newPrometheus() (*promRecorder, http.Handler) {
	registry := prom.NewRegistry()
	p := &promRecorder{
		providerTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "ner_provider_calls_total",
			Help: "Total number of extraction provider calls",
		}, []string{"provider", "success"}),
		providerSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "ner_provider_call_seconds",
			Help:    "Extraction provider call duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"provider", "success"}),
		rowsProcessed: prom.NewCounter(prom.CounterOpts{
			Name: "ner_rows_processed_total",
			Help: "Total number of in-scope rows extracted",
		}),
		changeOps: prom.NewCounterVec(prom.CounterOpts{
			Name: "ner_change_ops_total",
			Help: "Total number of change apply/revert operations",
		}, []string{"op", "success"}),
	}

	registry.MustRegister(p.providerTotal, p.providerSeconds, p.rowsProcessed, p.changeOps)
	return p, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
