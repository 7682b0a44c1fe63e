package corrector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// correctionsTotal counts per-token outcomes by the stage that decided them.
	correctionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_corrections_total",
		Help: "Token corrections by deciding stage",
	}, []string{"stage"})

	// cacheRequests counts memo lookups by cache and result (hit/miss).
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_cache_requests_total",
		Help: "Memo cache lookups by cache and result",
	}, []string{"cache", "result"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_cache_evictions_total",
		Help: "Memo cache evictions by cache",
	}, []string{"cache"})

	// stageCandidates tracks how much work each stage did per cache miss.
	stageCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "normalizer_stage_candidates",
		Help:    "Candidates examined per token by stage",
		Buckets: []float64{0, 10, 50, 100, 200, 400, 800, 1200},
	}, []string{"stage"})
)
