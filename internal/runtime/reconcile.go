package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

// Enrollment holds the placeholder values given to auto-enrolled newcomers.
type Enrollment struct {
	Role      string
	BirthDate domain.Date
}

// DefaultEnrollment matches how the ministry registers first-time visitors.
var DefaultEnrollment = Enrollment{
	Role:      "New Friend",
	BirthDate: domain.Date{Year: 2000, Month: 1, Day: 1},
}

// Reconciler persists a finished session against the attendance store.
type Reconciler struct {
	gateway    ports.Gateway
	enrollment Enrollment
	logger     *slog.Logger
}

// NewReconciler creates a reconciler. A nil logger disables logging.
func NewReconciler(gateway ports.Gateway, enrollment Enrollment, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{gateway: gateway, enrollment: enrollment, logger: logger}
}

// Commit writes every attendee and valid absentee that has no record yet for the
// session's (cell group, date) and enrolls attendees missing from the roster.
//
// Reads happen before any write; a failed read aborts with a *domain.GatewayError
// and nothing is written. Writes are independent: a failed write is listed in
// the report and the remaining writes still run.
func (r *Reconciler) Commit(ctx context.Context, s *domain.Session) (domain.CommitReport, error) {
	var report domain.CommitReport

	entered, err := r.gateway.AlreadyEntered(ctx, s.CellGroup, s.Date)
	if err != nil {
		return report, &domain.GatewayError{Op: "already_entered", Err: err}
	}
	roster, err := r.gateway.Members(ctx, s.CellGroup)
	if err != nil {
		return report, &domain.GatewayError{Op: "members", Err: err}
	}
	enteredSet := domain.NewNameSet(entered...)
	rosterSet := domain.NewNameSet(roster...)

	for _, name := range s.Attendees {
		if enteredSet.Contains(name) {
			continue
		}
		r.record(ctx, &report, domain.Record{CellGroup: s.CellGroup, Date: s.Date, Name: name, Status: domain.StatusPresent})
	}

	for _, name := range s.Attendees {
		if rosterSet.Contains(name) {
			continue
		}
		member := domain.Member{
			Name:      name,
			Role:      r.enrollment.Role,
			CellGroup: s.CellGroup,
			BirthDate: r.enrollment.BirthDate,
		}
		err := r.gateway.EnrollMember(ctx, member)
		switch {
		case err == nil:
			report.Enrolled = append(report.Enrolled, name)
		case errors.Is(err, domain.ErrDuplicateMember):
			r.logger.Debug("member enrolled concurrently", "cell_group", s.CellGroup, "name", name)
		default:
			r.logger.Error("enrollment failed", "cell_group", s.CellGroup, "name", name, "err", err)
			report.Failed = append(report.Failed, domain.Failure{Name: name, Op: "enroll", Err: err})
		}
	}

	for _, name := range s.ValidAbsentees {
		if enteredSet.Contains(name) {
			continue
		}
		r.record(ctx, &report, domain.Record{CellGroup: s.CellGroup, Date: s.Date, Name: name, Status: domain.StatusAbsentValid})
	}

	return report, nil
}

func (r *Reconciler) record(ctx context.Context, report *domain.CommitReport, rec domain.Record) {
	if err := r.gateway.RecordAttendance(ctx, rec); err != nil {
		r.logger.Error("attendance write failed",
			"cell_group", rec.CellGroup,
			"date", rec.Date.String(),
			"name", rec.Name,
			"status", string(rec.Status),
			"err", err,
		)
		report.Failed = append(report.Failed, domain.Failure{Name: rec.Name, Status: rec.Status, Op: "record", Err: err})
		return
	}
	report.Written = append(report.Written, rec)
}
