// Package metrics exposes Prometheus metrics for the interception proxy.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ExchangesCaptured counts exchanges written to the capture store.
	ExchangesCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "replayd_exchanges_captured_total",
		Help: "The total number of exchanges captured by the proxy",
	}, []string{"method", "status"})

	// ForwardFailures counts outbound forwarding failures. Each one produces
	// a synthesized 502 response to the original caller.
	ForwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replayd_forward_failures_total",
		Help: "Total forwarding failures converted to synthetic 502 responses",
	})

	// StoreFailures counts capture-store write failures swallowed at the
	// proxy boundary.
	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "replayd_store_failures_total",
		Help: "Total capture store write failures (capture is best-effort)",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
