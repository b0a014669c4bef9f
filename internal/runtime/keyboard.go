package runtime

import (
	"strconv"

	"github.com/podyouths/rollcall/pkg/domain"
)

var monthKeyboard = [][]string{
	{"Jan", "Feb", "Mar"},
	{"Apr", "May", "Jun"},
	{"Jul", "Aug", "Sep"},
	{"Oct", "Nov", "Dec"},
}

var dayKeyboard = func() [][]string {
	var rows [][]string
	for start := 1; start <= 31; start += 3 {
		var row []string
		for d := start; d < start+3 && d <= 31; d++ {
			row = append(row, strconv.Itoa(d))
		}
		rows = append(rows, row)
	}
	return rows
}()

// column lays names out one per row.
func column(names []string) [][]string {
	rows := make([][]string, 0, len(names)+1)
	for _, n := range names {
		rows = append(rows, []string{n})
	}
	return rows
}

// collectKeyboard offers the remaining roster followed by REMOVE and the finish token.
func collectKeyboard(remaining []string, continuing bool) [][]string {
	finish := domain.TokenNone
	if continuing {
		finish = domain.TokenDone
	}
	return append(column(remaining), []string{domain.TokenRemove, finish})
}

// removalKeyboard offers the names currently in the set followed by DONE.
func removalKeyboard(set domain.NameSet) [][]string {
	return append(column(set.Names()), []string{domain.TokenDone})
}
