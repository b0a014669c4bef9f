package observability

import (
	"context"
	"log/slog"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
)

// Hooks returns lifecycle hooks that log every event and, when metrics is not
// nil, count it.
func Hooks(logger *slog.Logger, metrics *Metrics) domain.LifecycleHooks {
	if logger == nil {
		logger = logging.NewNop()
	}

	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("transition",
				"chat_id", e.ChatID,
				"from", string(e.From),
				"to", string(e.To),
			)
			if metrics != nil {
				metrics.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			}
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.Info("attendance committed",
				"chat_id", e.ChatID,
				"cell_group", e.CellGroup,
				"date", e.Date.String(),
				"written", len(e.Report.Written),
				"enrolled", len(e.Report.Enrolled),
				"failed", len(e.Report.Failed),
			)
			if metrics == nil {
				return
			}
			for _, rec := range e.Report.Written {
				metrics.CommitWrites.WithLabelValues(string(rec.Status), OutcomeWritten).Inc()
			}
			for _, f := range e.Report.Failed {
				status := string(f.Status)
				if status == "" {
					status = statusEnrollment
				}
				metrics.CommitWrites.WithLabelValues(status, OutcomeFailed).Inc()
			}
			metrics.Enrollments.Add(float64(len(e.Report.Enrolled)))
		},
	}
}

// Combine fans each event out to every hook set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			for _, h := range sets {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			for _, h := range sets {
				if h.OnCommit != nil {
					h.OnCommit(ctx, e)
				}
			}
		},
	}
}
