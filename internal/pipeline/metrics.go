package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels for stageDuration.
const (
	stageRetrieval    = "retrieval"
	stageScoring      = "scoring"
	stageGeneration   = "generation"
	stageVerification = "verification"
)

var (
	// queriesTotal counts terminal outcomes by confidence level
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clausegate_queries_total",
		Help: "Total queries by outcome and confidence",
	}, []string{"outcome", "confidence"})

	// stageDuration tracks per-stage latency
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clausegate_stage_duration_seconds",
		Help:    "Pipeline stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
	}, []string{"stage"})

	// verifierFailOpenTotal counts answers released without a completed faithfulness check
	verifierFailOpenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clausegate_verifier_fail_open_total",
		Help: "Faithfulness checks that failed open because the verification call errored",
	})

	// cacheHitsTotal counts queries served from the response cache
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clausegate_cache_hits_total",
		Help: "Queries answered from the response cache",
	})
)

func observeStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
