package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var normalizeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "normalizer_normalize_duration_seconds",
	Help:    "Time spent in one normalize call, by mode",
	Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
}, []string{"mode"})
