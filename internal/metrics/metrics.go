// Package metrics exposes Prometheus collectors for submission runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal          *prometheus.CounterVec
	skipsTotal                *prometheus.CounterVec
	submissionDurationSeconds prometheus.Histogram
	pacingDelaySeconds        *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulkcrawl_submissions_total",
				Help: "Total crawl submissions, labeled by result.",
			},
			[]string{"result"},
		)

		skipsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bulkcrawl_skips_total",
				Help: "URLs excluded before submission, labeled by reason.",
			},
			[]string{"reason"},
		)

		submissionDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bulkcrawl_submission_duration_seconds",
				Help:    "Histogram of submission round-trip latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		pacingDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bulkcrawl_pacing_delay_seconds",
				Help:    "Histogram of pacing pauses, labeled by tier (item or batch).",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"tier"},
		)
	})
}

// ObserveSubmission records one submission outcome and its latency.
func ObserveSubmission(result string, duration time.Duration) {
	if submissionsTotal == nil {
		return
	}
	submissionsTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		submissionDurationSeconds.Observe(duration.Seconds())
	}
}

// ObserveSkip counts a URL excluded during filtering.
func ObserveSkip(reason string) {
	if skipsTotal == nil {
		return
	}
	skipsTotal.WithLabelValues(reason).Inc()
}

// ObservePacingDelay records a pacing pause for the given tier.
func ObservePacingDelay(tier string, delay time.Duration) {
	if pacingDelaySeconds == nil {
		return
	}
	pacingDelaySeconds.WithLabelValues(tier).Observe(delay.Seconds())
}
