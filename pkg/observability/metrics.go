package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for commit writes.
const (
	OutcomeWritten = "written"
	OutcomeFailed  = "failed"
)

// statusEnrollment labels failed roster enrollments in the commit write counter.
const statusEnrollment = "enrollment"

// Metrics holds the Prometheus collectors fed by the lifecycle hooks.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	CommitWrites *prometheus.CounterVec
	Enrollments  prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_transitions_total",
				Help: "Total number of conversation transitions",
			},
			[]string{"from", "to"},
		),
		CommitWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_commit_writes_total",
				Help: "Attendance writes attempted when a conversation is committed",
			},
			[]string{"status", "outcome"},
		),
		Enrollments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rollcall_enrollments_total",
				Help: "Newcomers added to a cell group roster",
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Transitions, m.CommitWrites, m.Enrollments} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
