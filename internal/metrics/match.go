package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match engine and corpus metrics.
var (
	SuggestRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggest_requests_total",
			Help:      "Suggestion requests by outcome",
		},
		[]string{"outcome"}, // "matched" / "empty" / "invalid" / "error"
	)

	SuggestResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggest_results",
			Help:      "Number of suggestions returned per request",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	CorpusEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_entries",
			Help:      "Proposals in the currently loaded corpus",
		},
	)

	CorpusSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_skipped_records_total",
			Help:      "Corpus records skipped at load time",
		},
		[]string{"reason"},
	)
)

var matchMetricsRegistered bool

// RegisterMatchMetrics registers match and corpus metrics. Must be called once from main.
func RegisterMatchMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SuggestRequestsTotal)
	prometheus.MustRegister(SuggestResults)
	prometheus.MustRegister(CorpusEntries)
	prometheus.MustRegister(CorpusSkippedTotal)
	matchMetricsRegistered = true
}
