package ports

import (
	"context"

	"github.com/podyouths/rollcall/pkg/domain"
)

// Gateway is the roster/attendance store as seen by the conversation core.
// Read operations return sets of names (deduplicated, sorted).
type Gateway interface {
	// CellGroups lists every cell group that has at least one roster member.
	CellGroups(ctx context.Context) ([]string, error)

	// Members lists the roster of a cell group.
	Members(ctx context.Context, cellGroup string) ([]string, error)

	// AlreadyPresent lists names recorded as Present for the cell group and date.
	AlreadyPresent(ctx context.Context, cellGroup string, date domain.Date) ([]string, error)

	// AlreadyAbsentValid lists names recorded as Absent Valid for the cell group and date.
	AlreadyAbsentValid(ctx context.Context, cellGroup string, date domain.Date) ([]string, error)

	// AlreadyEntered is the union of AlreadyPresent and AlreadyAbsentValid.
	AlreadyEntered(ctx context.Context, cellGroup string, date domain.Date) ([]string, error)

	// RecordAttendance inserts a record. It returns domain.ErrDuplicateRecord
	// if (cell group, date, name) already exists.
	RecordAttendance(ctx context.Context, rec domain.Record) error

	// DeleteAttendance removes the record matching all four fields, if any.
	DeleteAttendance(ctx context.Context, rec domain.Record) error

	// EnrollMember adds a roster entry. It returns domain.ErrDuplicateMember
	// if the name is already enrolled in the cell group.
	EnrollMember(ctx context.Context, m domain.Member) error
}

// AttendanceReader is implemented by gateways that can list full records,
// used by reporting surfaces.
type AttendanceReader interface {
	Attendance(ctx context.Context, cellGroup string, date domain.Date) ([]domain.Record, error)
}
