package redis

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/podyouths/rollcall/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultGatewayPrefix namespaces roster and attendance keys.
const DefaultGatewayPrefix = "rollcall:"

// deleteIfStatus removes a record only when it carries the expected status.
var deleteIfStatus = backend.NewScript(`
if redis.call("hget", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("hdel", KEYS[1], ARGV[1])
else
	return 0
end
`)

// enrollIfAbsent writes the member details and cell entry before the roster
// membership, all in one script. KEYS: members, member, cells. ARGV: name,
// cell, then the detail field/value pairs.
var enrollIfAbsent = backend.NewScript(`
if redis.call("sismember", KEYS[1], ARGV[1]) == 1 then
	return 0
end
redis.call("hset", KEYS[2], unpack(ARGV, 3))
redis.call("sadd", KEYS[3], ARGV[2])
redis.call("sadd", KEYS[1], ARGV[1])
return 1
`)

// Gateway implements ports.Gateway and ports.AttendanceReader on Redis.
type Gateway struct {
	client backend.UniversalClient
	prefix string
}

// NewGateway creates a gateway. An empty prefix selects DefaultGatewayPrefix.
func NewGateway(client backend.UniversalClient, prefix string) *Gateway {
	if prefix == "" {
		prefix = DefaultGatewayPrefix
	}
	return &Gateway{client: client, prefix: prefix}
}

func esc(s string) string {
	return url.PathEscape(s)
}

func (g *Gateway) cellsKey() string {
	return g.prefix + "cells"
}

func (g *Gateway) membersKey(cell string) string {
	return g.prefix + "cell:" + esc(cell) + ":members"
}

func (g *Gateway) memberKey(cell, name string) string {
	return g.prefix + "member:" + esc(cell) + ":" + esc(name)
}

func (g *Gateway) attendanceKey(cell string, date domain.Date) string {
	return g.prefix + "attendance:" + esc(cell) + ":" + date.String()
}

// CellGroups returns the sorted set of cell groups.
func (g *Gateway) CellGroups(ctx context.Context) ([]string, error) {
	cells, err := g.client.SMembers(ctx, g.cellsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cell groups: %w", err)
	}
	sort.Strings(cells)
	return cells, nil
}

// Members returns the sorted roster of cell.
func (g *Gateway) Members(ctx context.Context, cell string) ([]string, error) {
	names, err := g.client.SMembers(ctx, g.membersKey(cell)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read members of %s: %w", cell, err)
	}
	sort.Strings(names)
	return names, nil
}

func (g *Gateway) records(ctx context.Context, cell string, date domain.Date) ([]domain.Record, error) {
	entries, err := g.client.HGetAll(ctx, g.attendanceKey(cell, date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read attendance of %s on %s: %w", cell, date, err)
	}
	records := make([]domain.Record, 0, len(entries))
	for name, raw := range entries {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("attendance of %s on %s for %s: %w", cell, date, name, err)
		}
		records = append(records, domain.Record{CellGroup: cell, Date: date, Name: name, Status: status})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (g *Gateway) names(ctx context.Context, cell string, date domain.Date, keep func(domain.Status) bool) ([]string, error) {
	records, err := g.records(ctx, cell, date)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if keep(rec.Status) {
			names = append(names, rec.Name)
		}
	}
	return names, nil
}

// AlreadyPresent returns the names recorded as present for (cell, date).
func (g *Gateway) AlreadyPresent(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.names(ctx, cell, date, func(s domain.Status) bool { return s == domain.StatusPresent })
}

// AlreadyAbsentValid returns the names recorded as validly absent for (cell, date).
func (g *Gateway) AlreadyAbsentValid(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.names(ctx, cell, date, func(s domain.Status) bool { return s == domain.StatusAbsentValid })
}

// AlreadyEntered returns every name with a record for (cell, date).
func (g *Gateway) AlreadyEntered(ctx context.Context, cell string, date domain.Date) ([]string, error) {
	return g.names(ctx, cell, date, func(domain.Status) bool { return true })
}

// Attendance returns the records for (cell, date) ordered by name.
func (g *Gateway) Attendance(ctx context.Context, cell string, date domain.Date) ([]domain.Record, error) {
	return g.records(ctx, cell, date)
}

// RecordAttendance inserts a record with HSETNX, so existing records are never overwritten.
func (g *Gateway) RecordAttendance(ctx context.Context, rec domain.Record) error {
	ok, err := g.client.HSetNX(ctx, g.attendanceKey(rec.CellGroup, rec.Date), rec.Name, string(rec.Status)).Result()
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s on %s: %w", rec.Name, rec.Date, domain.ErrDuplicateRecord)
	}
	return nil
}

// DeleteAttendance removes the record matching all four fields, if any.
func (g *Gateway) DeleteAttendance(ctx context.Context, rec domain.Record) error {
	key := g.attendanceKey(rec.CellGroup, rec.Date)
	if err := deleteIfStatus.Run(ctx, g.client, []string{key}, rec.Name, string(rec.Status)).Err(); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return nil
}

// EnrollMember adds a roster entry. The member set doubles as the uniqueness check.
func (g *Gateway) EnrollMember(ctx context.Context, m domain.Member) error {
	args := []any{
		m.Name, m.CellGroup,
		"name", m.Name,
		"role", m.Role,
		"cell_group", m.CellGroup,
		"birth_date", m.BirthDate.String(),
	}
	if m.ExternalID != nil {
		args = append(args, "external_id", *m.ExternalID)
	}

	keys := []string{g.membersKey(m.CellGroup), g.memberKey(m.CellGroup, m.Name), g.cellsKey()}
	added, err := enrollIfAbsent.Run(ctx, g.client, keys, args...).Int64()
	if err != nil {
		return fmt.Errorf("failed to enroll member: %w", err)
	}
	if added == 0 {
		return fmt.Errorf("%s in %s: %w", m.Name, m.CellGroup, domain.ErrDuplicateMember)
	}
	return nil
}

// Member returns the stored roster entry for name in cell.
func (g *Gateway) Member(ctx context.Context, cell, name string) (domain.Member, error) {
	fields, err := g.client.HGetAll(ctx, g.memberKey(cell, name)).Result()
	if err != nil {
		return domain.Member{}, fmt.Errorf("failed to read member: %w", err)
	}
	if len(fields) == 0 {
		return domain.Member{}, fmt.Errorf("member %s not found in %s", name, cell)
	}

	m := domain.Member{Name: fields["name"], Role: fields["role"], CellGroup: fields["cell_group"]}
	if raw := fields["birth_date"]; raw != "" {
		if m.BirthDate, err = domain.ParseDate(raw); err != nil {
			return domain.Member{}, err
		}
	}
	if id, ok := fields["external_id"]; ok {
		m.ExternalID = &id
	}
	return m, nil
}
