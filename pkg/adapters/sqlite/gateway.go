// Package sqlite implements the roster and attendance store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/podyouths/rollcall/pkg/domain"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`PRAGMA journal_mode=WAL;`,
	`CREATE TABLE IF NOT EXISTS person (
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		cell_group TEXT NOT NULL,
		external_id TEXT,
		birth_date TEXT NOT NULL,
		PRIMARY KEY(cell_group, name)
	);`,
	`CREATE TABLE IF NOT EXISTS attendance (
		cell_group TEXT NOT NULL,
		date_attended TEXT NOT NULL,
		name TEXT NOT NULL,
		attendance_type TEXT NOT NULL,
		PRIMARY KEY(cell_group, date_attended, name)
	);`,
}

// Gateway implements ports.Gateway and ports.AttendanceReader.
type Gateway struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Gateway, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	gw := &Gateway{db: db}
	if err := gw.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return gw, nil
}

func (g *Gateway) initSchema() error {
	for _, stmt := range schema {
		if _, err := g.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialise schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

// Close releases the database.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CellGroups returns every cell group with at least one member.
func (g *Gateway) CellGroups(ctx context.Context) ([]string, error) {
	cells, err := g.strings(ctx, `SELECT DISTINCT cell_group FROM person ORDER BY cell_group`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell groups: %w", err)
	}
	return cells, nil
}

// Members returns the roster of cell.
func (g *Gateway) Members(ctx context.Context, cell string) ([]string, error) {
	names, err := g.strings(ctx, `SELECT name FROM person WHERE cell_group = ? ORDER BY name`, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read members of %s: %w", cell, err)
	}
	return names, nil
}

// AlreadyPresent returns the names recorded as present for (cell, date).
func (g *Gateway) AlreadyPresent(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.byStatus(ctx, cell, date, domain.StatusPresent)
}

// AlreadyAbsentValid returns the names recorded as validly absent for (cell, date).
func (g *Gateway) AlreadyAbsentValid(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.byStatus(ctx, cell, date, domain.StatusAbsentValid)
}

func (g *Gateway) byStatus(ctx context.Context, cell string, date domain.Date, status domain.Status) ([]string, error) {
	names, err := g.strings(ctx,
		`SELECT name FROM attendance WHERE cell_group = ? AND date_attended = ? AND attendance_type = ? ORDER BY name`,
		cell, date.String(), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance of %s on %s: %w", cell, date, err)
	}
	return names, nil
}

// AlreadyEntered returns every name with a record for (cell, date).
func (g *Gateway) AlreadyEntered(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	names, err := g.strings(ctx,
		`SELECT name FROM attendance WHERE cell_group = ? AND date_attended = ? ORDER BY name`,
		cell, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance of %s on %s: %w", cell, date, err)
	}
	return names, nil
}

// Attendance returns the records for (cell, date) ordered by name.
func (g *Gateway) Attendance(ctx context.Context, cell string, date domain.Date) ([]domain.Record, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT name, attendance_type FROM attendance WHERE cell_group = ? AND date_attended = ? ORDER BY name`,
		cell, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance of %s on %s: %w", cell, date, err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, err
		}
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("attendance of %s on %s for %s: %w", cell, date, name, err)
		}
		records = append(records, domain.Record{CellGroup: cell, Date: date, Name: name, Status: status})
	}
	return records, rows.Err()
}

// RecordAttendance inserts a record. Existing keys are left untouched and
// reported as domain.ErrDuplicateRecord.
func (g *Gateway) RecordAttendance(ctx context.Context, rec domain.Record) error {
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO attendance(cell_group, date_attended, name, attendance_type) VALUES(?, ?, ?, ?)
		ON CONFLICT(cell_group, date_attended, name) DO NOTHING`,
		rec.CellGroup, rec.Date.String(), rec.Name, string(rec.Status))
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s on %s: %w", rec.Name, rec.Date, domain.ErrDuplicateRecord)
	}
	return nil
}

// DeleteAttendance removes the record matching all four fields, if any.
func (g *Gateway) DeleteAttendance(ctx context.Context, rec domain.Record) error {
	_, err := g.db.ExecContext(ctx,
		`DELETE FROM attendance WHERE cell_group = ? AND date_attended = ? AND name = ? AND attendance_type = ?`,
		rec.CellGroup, rec.Date.String(), rec.Name, string(rec.Status))
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return nil
}

// EnrollMember adds a roster entry.
func (g *Gateway) EnrollMember(ctx context.Context, m domain.Member) error {
	var externalID sql.NullString
	if m.ExternalID != nil {
		externalID = sql.NullString{String: *m.ExternalID, Valid: true}
	}
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO person(name, role, cell_group, external_id, birth_date) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(cell_group, name) DO NOTHING`,
		m.Name, m.Role, m.CellGroup, externalID, m.BirthDate.String())
	if err != nil {
		return fmt.Errorf("failed to enroll member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to enroll member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s in %s: %w", m.Name, m.CellGroup, domain.ErrDuplicateMember)
	}
	return nil
}

// Member returns the stored roster entry for name in cell. A stored birth date
// that does not parse is reported as domain.ErrMalformedDate.
func (g *Gateway) Member(ctx context.Context, cell, name string) (domain.Member, error) {
	var (
		m          domain.Member
		externalID sql.NullString
		birth      string
	)
	err := g.db.QueryRowContext(ctx,
		`SELECT name, role, cell_group, external_id, birth_date FROM person WHERE cell_group = ? AND name = ?`,
		cell, name).Scan(&m.Name, &m.Role, &m.CellGroup, &externalID, &birth)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s not found in %s", name, cell)
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("failed to read member: %w", err)
	}
	if externalID.Valid {
		id := externalID.String
		m.ExternalID = &id
	}
	if birth != "" {
		if m.BirthDate, err = domain.ParseDate(birth); err != nil {
			return domain.Member{}, fmt.Errorf("member %s: %w", name, err)
		}
	}
	return m, nil
}
