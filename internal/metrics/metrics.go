package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OracleCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mixer_oracle_calls_total",
		Help: "Total oracle calls by kind",
	}, []string{"kind"})
	JudgeFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixer_judge_fallbacks_total",
		Help: "Total judge responses scored with the randomized fallback",
	})
	MatchRounds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixer_match_rounds_total",
		Help: "Total scoring rounds executed",
	})
	MatchRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mixer_match_retries_total",
		Help: "Total retry rounds triggered by failed validation",
	})
	RoundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mixer_match_round_duration_seconds",
		Help:    "Scoring round duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(OracleCalls, JudgeFallbacks, MatchRounds, MatchRetries, RoundDuration)
}

// ObserveRoundDuration records one scoring round's duration.
func ObserveRoundDuration(start time.Time) {
	RoundDuration.Observe(time.Since(start).Seconds())
}

// IncOracleCall increments the call counter for the given oracle kind.
func IncOracleCall(kind string) { OracleCalls.WithLabelValues(kind).Inc() }
