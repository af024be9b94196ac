package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ScoringLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "alphapull",
            Subsystem: "scoring",
            Name:      "latency_seconds",
            Help:      "Latency of scoring passes",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"stage"},
    )

    ScoringErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "alphapull",
            Subsystem: "scoring",
            Name:      "errors_total",
            Help:      "Errors by scoring stage",
        },
        []string{"stage"},
    )

    ScoredInsights = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "alphapull",
            Subsystem: "scoring",
            Name:      "insights_total",
            Help:      "Scored insights by outcome",
        },
        []string{"outcome"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(ScoringLatency, ScoringErrors, ScoredInsights)
    })
}
