package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/podyouths/rollcall/pkg/domain"
)

// JSONHandler implements IOHandler for JSON-Lines communication.
// Each reply is one Response object per line; each input line is either a
// JSON string, an object with a "text" field, or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, reply domain.Reply) error {
	return h.Encoder.Encode(NewResponse(reply))
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	line, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSpace(line)

	text := line
	var s string
	var obj struct {
		Text string `json:"text"`
	}
	switch {
	case json.Unmarshal([]byte(line), &s) == nil:
		text = s
	case json.Unmarshal([]byte(line), &obj) == nil:
		text = obj.Text
	}
	return SanitizeInput(strings.TrimSpace(text))
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}
