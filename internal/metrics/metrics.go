package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	RecordsUpserted    *prometheus.CounterVec
	ProviderFailures   *prometheus.CounterVec
	ProviderRateLimits *prometheus.CounterVec
	ResolverClosed     *prometheus.CounterVec
	EnrichmentOutcomes *prometheus.CounterVec
}

// Module provides the metrics instruments.
var Module = fx.Provide(New)

// New registers the flightwatch instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		RecordsUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flightwatch_records_upserted_total",
			Help: "Flight records written per sync target.",
		}, []string{"target"}),
		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flightwatch_provider_failures_total",
			Help: "Provider fetches that failed and were skipped.",
		}, []string{"provider"}),
		ProviderRateLimits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flightwatch_provider_rate_limits_total",
			Help: "Provider fetches rejected by upstream rate limiting.",
		}, []string{"provider"}),
		ResolverClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flightwatch_resolver_closed_total",
			Help: "Records closed by resolver heuristics per rule.",
		}, []string{"rule"}),
		EnrichmentOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flightwatch_enrichment_outcomes_total",
			Help: "Registration resolution outcomes per tag.",
		}, []string{"outcome"}),
	}
}
