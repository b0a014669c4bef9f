package domain

import "fmt"

// Status is the attendance status of a person on a given day.
type Status string

const (
	StatusPresent     Status = "Present"
	StatusAbsentValid Status = "Absent Valid"
)

// ParseStatus maps a stored status string to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsentValid:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Record is one persisted attendance fact, unique per (CellGroup, Date, Name).
type Record struct {
	CellGroup string `json:"cell_group"`
	Date      Date   `json:"date"`
	Name      string `json:"name"`
	Status    Status `json:"status"`
}

// Member is a roster entry.
type Member struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	CellGroup  string  `json:"cell_group"`
	ExternalID *string `json:"external_id"`
	BirthDate  Date    `json:"birth_date"`
}
