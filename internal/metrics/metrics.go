package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mattjoyce/orderhook/internal/notify"
)

// Registry is the custom Prometheus registry for orderhook metrics.
var Registry = prometheus.NewRegistry()

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderhook",
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Total number of relay requests by outcome",
		},
		[]string{"outcome"},
	)

	DeliveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orderhook",
			Subsystem: "slack",
			Name:      "delivery_duration_seconds",
			Help:      "Outbound webhook latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestsTotal,
		DeliveryDuration,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveOutcome counts one finished relay request.
func ObserveOutcome(outcome string) {
	RequestsTotal.WithLabelValues(outcome).Inc()
}

type instrumented struct {
	next notify.Deliverer
}

// InstrumentDeliverer records the latency of every delivery, labelled
// "ok", "rejected" (non-2xx) or "error" (transport failure).
func InstrumentDeliverer(next notify.Deliverer) notify.Deliverer {
	return instrumented{next: next}
}

func (i instrumented) Deliver(ctx context.Context, url string, msg notify.Message) (notify.Result, error) {
	start := time.Now()
	res, err := i.next.Deliver(ctx, url, msg)

	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case !res.OK():
		result = "rejected"
	}
	DeliveryDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return res, err
}
