package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`             _ _           _ _ `, "#34d399"},
	{`  _ __ ___ | | | ___ __ _| | |`, "#2dd4bf"},
	{` | '__/ _ \| | |/ __/ _' | | |`, "#22d3ee"},
	{` | | | (_) | | | (_| (_| | | |`, "#38bdf8"},
	{` |_|  \___/|_|_|\___\__,_|_|_|`, "#60a5fa"},
}

// PrintBanner writes the rollcall banner, coloured when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
