package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
)

// ErrReportUnsupported is returned when the store cannot list full records.
var ErrReportUnsupported = errors.New("attendance reports are not supported by this store")

var headerStyle = lipgloss.NewStyle().Bold(true)

// WriteReport prints the attendance of cell on date as a table.
func WriteReport(ctx context.Context, w io.Writer, gw ports.Gateway, cell string, date domain.Date) error {
	reader, ok := gw.(ports.AttendanceReader)
	if !ok {
		return ErrReportUnsupported
	}

	records, err := reader.Attendance(ctx, cell, date)
	if err != nil {
		return fmt.Errorf("failed to read attendance: %w", err)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "No attendance recorded for %s on %s.\n", cell, date)
		return err
	}

	present := 0
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "STATUS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	for _, rec := range records {
		if rec.Status == domain.StatusPresent {
			present++
		}
		t.Row(rec.Name, string(rec.Status))
	}

	if _, err := fmt.Fprintf(w, "%s, %s\n%s\n", cell, date.Label(), t.String()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d present, %d absent valid\n", present, len(records)-present)
	return err
}
