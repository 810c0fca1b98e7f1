// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthai_inference_duration_seconds",
			Help:    "Time taken for model inference calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60, 90, 120, 180},
		},
		[]string{"model", "outcome"},
	)

	InferenceCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_inference_count_total",
			Help: "Total number of model inference calls by outcome",
		},
		[]string{"model", "outcome"},
	)

	SectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_section_requests_total",
			Help: "Questions asked per section",
		},
		[]string{"section", "outcome"},
	)

	TokenFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_token_fetches_total",
			Help: "Identity token exchanges by result",
		},
		[]string{"result"},
	)

	AnswerCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_answer_cache_total",
			Help: "Answer cache lookups by result",
		},
		[]string{"result"},
	)

	PendingLogs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "healthai_pending_inference_logs",
			Help: "Inference log records waiting to be flushed",
		},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_error_count",
			Help: "Error count",
		},
		[]string{"from", "code"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthai_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
