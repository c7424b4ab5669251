// Package metrics registers the run-level Prometheus instrumentation
// cmd/alocador exposes. The core packages never import this: timing and
// outcome instrumentation is a concern of the command that runs them,
// not of the allocation engine itself.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for Metrics.Runs.
const (
	OutcomeSuccess     = "success"
	OutcomeInfeasible  = "infeasible"
	OutcomeEmptyDomain = "empty_domain"
	OutcomeError       = "error"
)

// Metrics holds the counters/histograms one alocador run updates.
type Metrics struct {
	StudentsPlaced  prometheus.Counter
	ClassesOpened   prometheus.Counter
	SolveDuration   prometheus.Histogram
	ObjectiveValue  prometheus.Gauge
	Runs            *prometheus.CounterVec
}

// New registers the metrics on reg and returns the handles to update them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StudentsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alocador_students_placed_total",
			Help: "Total number of students placed into a class across all runs.",
		}),
		ClassesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alocador_classes_opened_total",
			Help: "Total number of classes opened across all runs.",
		}),
		SolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alocador_solve_duration_seconds",
			Help:    "Wall-clock time spent in the MILP solve, per run.",
			Buckets: prometheus.DefBuckets,
		}),
		ObjectiveValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alocador_objective_value",
			Help: "Objective value of the most recent successful solve.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alocador_runs_total",
			Help: "Total number of alocador runs, labeled by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.StudentsPlaced, m.ClassesOpened, m.SolveDuration, m.ObjectiveValue, m.Runs)
	return m
}

// ObserveSolve records one run's solve duration and updates the gauges.
func (m *Metrics) ObserveSolve(start time.Time, studentsPlaced, classesOpened int, objectiveValue float64) {
	m.SolveDuration.Observe(time.Since(start).Seconds())
	m.StudentsPlaced.Add(float64(studentsPlaced))
	m.ClassesOpened.Add(float64(classesOpened))
	m.ObjectiveValue.Set(objectiveValue)
}
