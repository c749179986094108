// Package metrics содержит Prometheus-коллекторы сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests считает обращения к кешу по виду пространства имен и результату (hit/miss)
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contest_api",
		Name:      "cache_requests_total",
		Help:      "Cache lookups by namespace kind and result.",
	}, []string{"kind", "result"})

	// ParticipationEvents считает исходы join/submit
	ParticipationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contest_api",
		Name:      "participation_events_total",
		Help:      "Join and submit outcomes.",
	}, []string{"operation", "outcome"})

	// PrizesAwarded считает присужденные призы
	PrizesAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "contest_api",
		Name:      "prizes_awarded_total",
		Help:      "Prizes assigned to winners.",
	})

	// HTTPRequestDuration - длительность HTTP-запросов по маршруту
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contest_api",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// ObserveCache регистрирует попадание или промах кеша
func ObserveCache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequests.WithLabelValues(kind, result).Inc()
}
