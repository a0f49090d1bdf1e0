// Package metrics exposes progression counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Points awarded, labelled by the event that earned them
	pointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathquest_points_awarded_total",
			Help: "Total points awarded to learners",
		},
		[]string{"event"}, // challenge | scenario
	)

	badgesUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathquest_badges_unlocked_total",
			Help: "Total badges unlocked",
		},
		[]string{"badge"},
	)

	duplicateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathquest_duplicate_completions_total",
			Help: "Completions ignored because they were already recorded",
		},
		[]string{"event"},
	)

	challengeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathquest_challenge_runs_total",
			Help: "Finished challenge runs",
		},
		[]string{"outcome"}, // completed | partial
	)

	activeRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mathquest_challenge_runs_active",
			Help: "Challenge runs currently in progress",
		},
	)

	moduleCompletions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mathquest_module_completions_total",
			Help: "Total learning module completions",
		},
	)
)

func PointsAwarded(event string, points int) {
	if points <= 0 {
		return
	}
	pointsAwarded.WithLabelValues(event).Add(float64(points))
}

func BadgesUnlocked(ids []string) {
	for _, id := range ids {
		badgesUnlocked.WithLabelValues(id).Inc()
	}
}

func DuplicateRejected(event string) {
	duplicateRejections.WithLabelValues(event).Inc()
}

// RunFinished records a finished run and releases its active slot.
func RunFinished(completed bool) {
	outcome := "partial"
	if completed {
		outcome = "completed"
	}
	challengeRuns.WithLabelValues(outcome).Inc()
	activeRuns.Dec()
}

func RunStarted() {
	activeRuns.Inc()
}

func ModuleCompleted() {
	moduleCompletions.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
