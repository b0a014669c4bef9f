package domain

// Step is a position in the fixed conversation graph.
type Step string

const (
	StepIdle                    Step = "idle" // No conversation in progress
	StepAwaitingVerification    Step = "awaiting_verification"
	StepAwaitingCell            Step = "awaiting_cell"
	StepAwaitingMonth           Step = "awaiting_month"
	StepAwaitingDay             Step = "awaiting_day"
	StepAwaitingAttendees       Step = "awaiting_attendees"
	StepAwaitingAttendeeRemoval Step = "awaiting_attendee_removal"
	StepAwaitingValidAbsentees  Step = "awaiting_valid_absentees"
	StepAwaitingAbsenteeRemoval Step = "awaiting_absentee_removal"
	StepCommitting              Step = "committing" // Terminal: reconcile and persist
)

// Steps lists the conversation steps in their fixed order.
var Steps = []Step{
	StepAwaitingVerification,
	StepAwaitingCell,
	StepAwaitingMonth,
	StepAwaitingDay,
	StepAwaitingAttendees,
	StepAwaitingAttendeeRemoval,
	StepAwaitingValidAbsentees,
	StepAwaitingAbsenteeRemoval,
	StepCommitting,
}

// Valid reports whether s is a known step (including StepIdle).
func (s Step) Valid() bool {
	if s == StepIdle {
		return true
	}
	for _, known := range Steps {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether a conversation is in progress at this step.
func (s Step) Active() bool {
	return s != StepIdle && s != "" && s != StepCommitting
}

// Edge is one transition of the conversation graph, used for introspection.
type Edge struct {
	From  Step   `json:"from"`
	To    Step   `json:"to"`
	Guard string `json:"guard"`
}
