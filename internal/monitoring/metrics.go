package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	QueriesTotal          *prometheus.CounterVec
	DealsEmittedTotal     prometheus.Counter
	RejectionsTotal       *prometheus.CounterVec
	FetchErrorsTotal      *prometheus.CounterVec
	CacheTotal            *prometheus.CounterVec
	AggregateRefreshTotal *prometheus.CounterVec
}

// NewMetrics registers all counters on the given registerer. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_queries_total",
			Help: "The total number of keyword queries served",
		}, []string{"source"}), // 'cache' or 'pipeline'
		DealsEmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dealbot_deals_emitted_total",
			Help: "The total number of deals emitted by the enricher",
		}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_rejections_total",
			Help: "The total number of feed entries rejected during enrichment",
		}, []string{"reason"}), // e.g. 'low_score', 'no_amazon_link'
		FetchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_fetch_errors_total",
			Help: "The total number of upstream fetch failures",
		}, []string{"stage"}), // e.g. 'feed', 'entry_page', 'product_page'
		CacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_cache_requests_total",
			Help: "Cache lookups by cache name and outcome",
		}, []string{"cache", "outcome"}),
		AggregateRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_aggregate_refresh_total",
			Help: "Top-deals refresh cycles by status",
		}, []string{"status"}), // 'ok' or 'panic'
	}
}

func (m *Metrics) IncQuery(source string) {
	m.QueriesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncDealEmitted() {
	m.DealsEmittedTotal.Inc()
}

func (m *Metrics) IncRejection(reason string) {
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncFetchError(stage string) {
	m.FetchErrorsTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncCache(cache, outcome string) {
	m.CacheTotal.WithLabelValues(cache, outcome).Inc()
}

func (m *Metrics) IncAggregateRefresh(status string) {
	m.AggregateRefreshTotal.WithLabelValues(status).Inc()
}
