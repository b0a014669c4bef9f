package domain

// Message is one inbound chat message.
type Message struct {
	ChatID string
	Text   string

	// SenderName is the display (first) name of the sender, if the transport knows it.
	SenderName string
}

// Reply is the single outbound prompt produced per turn.
//
// Text uses a small HTML subset (<b>, <i>) with user-provided names escaped,
// which chat transports can send as-is and consoles can convert.
type Reply struct {
	Text string `json:"text"`

	// Keyboard holds suggested replies laid out in rows.
	Keyboard [][]string `json:"keyboard,omitempty"`

	// ClearKeyboard asks the transport to remove any suggestions previously shown.
	ClearKeyboard bool `json:"clear_keyboard,omitempty"`

	// Step is the step the session is in after this turn.
	Step Step `json:"step"`
}

// Choices flattens the keyboard into the ordered list of suggestions.
func (r Reply) Choices() []string {
	var out []string
	for _, row := range r.Keyboard {
		out = append(out, row...)
	}
	return out
}
