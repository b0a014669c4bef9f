package domain

import "time"

// Session is the state of one chat's conversation.
// Optional fields use their zero value to mean "unset".
type Session struct {
	// ChatID identifies the chat (and therefore the session).
	ChatID string `json:"chat_id"`

	// Step is the current position in the conversation graph.
	Step Step `json:"step"`

	// CellGroup is the selected cell group, or "" before selection.
	CellGroup string `json:"cell_group,omitempty"`

	// Month holds the partial date while the day is being chosen.
	Month time.Month `json:"month,omitempty"`

	// Date is the frozen attendance date, assembled from year, Month and the chosen day.
	Date Date `json:"date"`

	// Attendees and ValidAbsentees are disjoint ordered sets.
	Attendees      NameSet `json:"attendees,omitempty"`
	ValidAbsentees NameSet `json:"valid_absentees,omitempty"`

	// Continuing is set once the current name list has been amended, switching
	// the list prompt from NONE to DONE.
	Continuing bool `json:"continuing,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries an opaque encrypted copy of the session when a sealing
	// store middleware is in use. It is empty on live sessions.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session waiting for the verification code.
func NewSession(chatID string, now time.Time) *Session {
	return &Session{
		ChatID:    chatID,
		Step:      StepAwaitingVerification,
		UpdatedAt: now,
	}
}

// HasCellGroup reports whether a cell group has been selected.
func (s *Session) HasCellGroup() bool {
	return s.CellGroup != ""
}

// Classified reports whether name is already in either list.
func (s *Session) Classified(name string) bool {
	return s.Attendees.Contains(name) || s.ValidAbsentees.Contains(name)
}

// Clear drops all collected data and returns the session to StepIdle.
func (s *Session) Clear() {
	chatID := s.ChatID
	updated := s.UpdatedAt
	*s = Session{ChatID: chatID, Step: StepIdle, UpdatedAt: updated}
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Attendees = s.Attendees.Clone()
	next.ValidAbsentees = s.ValidAbsentees.Clone()
	return &next
}
