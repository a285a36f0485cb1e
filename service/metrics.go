package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagq_queries_total",
			Help: "Number of queries run, by strategy and outcome.",
		}, []string{"strategy", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tagq_query_duration_seconds",
			Help:    "Time to compile and run a query.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"strategy"}),
	}
	for _, c := range []prometheus.Collector{m.queries, m.duration} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
