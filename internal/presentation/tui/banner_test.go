package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))
	assert.Contains(t, out, `|_|  \___/|_|_|\___\__,_|_|_|`)
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	out, err := render("Hello **Alice**")
	assert.NoError(t, err)
	assert.Contains(t, out, "Alice")
}
