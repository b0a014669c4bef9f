package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"gopkg.in/yaml.v3"
)

// RosterFile is the YAML document read by `rollcall roster import`.
//
//	members:
//	  - name: Alice
//	    cell_group: Bouquet
//	    role: Leader
//	    birth_date: 1990-05-01
//	    external_id: "1234"
type RosterFile struct {
	Members []RosterEntry `yaml:"members"`
}

// RosterEntry is one member. Role and birth date fall back to the enrollment defaults.
type RosterEntry struct {
	Name       string `yaml:"name"`
	CellGroup  string `yaml:"cell_group"`
	Role       string `yaml:"role"`
	BirthDate  string `yaml:"birth_date"`
	ExternalID string `yaml:"external_id"`
}

// ImportResult lists members by "cell/name".
type ImportResult struct {
	Enrolled []string
	Skipped  []string
}

// ParseRoster decodes and validates a roster document.
func ParseRoster(r io.Reader, defaults domain.Member) ([]domain.Member, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc RosterFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	members := make([]domain.Member, 0, len(doc.Members))
	for i, e := range doc.Members {
		m := domain.Member{
			Name:      strings.TrimSpace(e.Name),
			CellGroup: strings.TrimSpace(e.CellGroup),
			Role:      e.Role,
			BirthDate: defaults.BirthDate,
		}
		if m.Name == "" || m.CellGroup == "" {
			return nil, fmt.Errorf("roster entry %d: name and cell_group are required", i+1)
		}
		if m.Role == "" {
			m.Role = defaults.Role
		}
		if e.BirthDate != "" {
			d, err := domain.ParseDate(e.BirthDate)
			if err != nil {
				return nil, fmt.Errorf("roster entry %d (%s): %w", i+1, m.Name, err)
			}
			m.BirthDate = d
		}
		if e.ExternalID != "" {
			id := e.ExternalID
			m.ExternalID = &id
		}
		members = append(members, m)
	}
	return members, nil
}

// ImportRoster enrolls every member of the document. Members already on the
// roster are skipped.
func ImportRoster(ctx context.Context, gw ports.Gateway, r io.Reader, defaults domain.Member) (ImportResult, error) {
	var res ImportResult

	members, err := ParseRoster(r, defaults)
	if err != nil {
		return res, err
	}

	for _, m := range members {
		key := m.CellGroup + "/" + m.Name
		err := gw.EnrollMember(ctx, m)
		switch {
		case err == nil:
			res.Enrolled = append(res.Enrolled, key)
		case errors.Is(err, domain.ErrDuplicateMember):
			res.Skipped = append(res.Skipped, key)
		default:
			return res, fmt.Errorf("failed to enroll %s: %w", key, err)
		}
	}
	return res, nil
}
