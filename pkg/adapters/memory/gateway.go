package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/podyouths/rollcall/pkg/domain"
)

type attendanceKey struct {
	cell string
	date domain.Date
	name string
}

type memberKey struct {
	cell string
	name string
}

// Gateway implements ports.Gateway and ports.AttendanceReader over in-process maps.
// Safe for concurrent use.
type Gateway struct {
	mu         sync.RWMutex
	members    map[memberKey]domain.Member
	attendance map[attendanceKey]domain.Status
}

// NewGateway creates an empty gateway.
func NewGateway() *Gateway {
	return &Gateway{
		members:    make(map[memberKey]domain.Member),
		attendance: make(map[attendanceKey]domain.Status),
	}
}

// NewGatewayWithRoster creates a gateway seeded with the given roster,
// keyed by cell group.
func NewGatewayWithRoster(roster map[string][]string, role string, birth domain.Date) *Gateway {
	g := NewGateway()
	for cell, names := range roster {
		for _, name := range names {
			g.members[memberKey{cell, name}] = domain.Member{Name: name, Role: role, CellGroup: cell, BirthDate: birth}
		}
	}
	return g
}

// CellGroups returns the distinct cell groups that have at least one member.
func (g *Gateway) CellGroups(ctx context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cells := make([]string, 0)
	for k := range g.members {
		cells = append(cells, k.cell)
	}
	return domain.SortedUnique(cells), nil
}

// Members returns the sorted names enrolled in cell.
func (g *Gateway) Members(ctx context.Context, cell string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0)
	for k := range g.members {
		if k.cell == cell {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (g *Gateway) byStatus(cell string, date domain.Date, match func(domain.Status) bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0)
	for k, status := range g.attendance {
		if k.cell == cell && k.date == date && match(status) {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

// AlreadyPresent returns the names recorded as present for (cell, date).
func (g *Gateway) AlreadyPresent(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.byStatus(cell, date, func(s domain.Status) bool { return s == domain.StatusPresent }), nil
}

// AlreadyAbsentValid returns the names recorded as validly absent for (cell, date).
func (g *Gateway) AlreadyAbsentValid(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.byStatus(cell, date, func(s domain.Status) bool { return s == domain.StatusAbsentValid }), nil
}

// AlreadyEntered returns every name with a record for (cell, date).
func (g *Gateway) AlreadyEntered(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.byStatus(cell, date, func(domain.Status) bool { return true }), nil
}

// Attendance returns the records for (cell, date) ordered by name.
func (g *Gateway) Attendance(ctx context.Context, cell string, date domain.Date) ([]domain.Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	records := make([]domain.Record, 0)
	for k, status := range g.attendance {
		if k.cell == cell && k.date == date {
			records = append(records, domain.Record{CellGroup: cell, Date: date, Name: k.name, Status: status})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// RecordAttendance inserts a record. Existing records are never overwritten.
func (g *Gateway) RecordAttendance(ctx context.Context, rec domain.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := attendanceKey{rec.CellGroup, rec.Date, rec.Name}
	if _, exists := g.attendance[key]; exists {
		return fmt.Errorf("%s on %s: %w", rec.Name, rec.Date, domain.ErrDuplicateRecord)
	}
	g.attendance[key] = rec.Status
	return nil
}

// DeleteAttendance removes the record matching all four fields, if any.
func (g *Gateway) DeleteAttendance(ctx context.Context, rec domain.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := attendanceKey{rec.CellGroup, rec.Date, rec.Name}
	if status, ok := g.attendance[key]; ok && status == rec.Status {
		delete(g.attendance, key)
	}
	return nil
}

// EnrollMember adds a roster entry.
func (g *Gateway) EnrollMember(ctx context.Context, m domain.Member) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := memberKey{m.CellGroup, m.Name}
	if _, exists := g.members[key]; exists {
		return fmt.Errorf("%s in %s: %w", m.Name, m.CellGroup, domain.ErrDuplicateMember)
	}
	g.members[key] = m
	return nil
}

// Member returns the roster entry for name in cell.
func (g *Gateway) Member(cell, name string) (domain.Member, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.members[memberKey{cell, name}]
	return m, ok
}
