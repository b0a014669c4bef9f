package runtime

import "github.com/podyouths/rollcall/pkg/domain"

// Transitions returns the fixed conversation graph, including self-loops for
// re-prompts and list edits. /start and /exit apply to every step and are drawn
// once each.
func Transitions() []domain.Edge {
	return []domain.Edge{
		{From: domain.StepIdle, To: domain.StepAwaitingVerification, Guard: domain.CommandStart},
		{From: domain.StepAwaitingVerification, To: domain.StepAwaitingVerification, Guard: "wrong code"},
		{From: domain.StepAwaitingVerification, To: domain.StepAwaitingCell, Guard: "code"},
		{From: domain.StepAwaitingCell, To: domain.StepAwaitingMonth, Guard: "cell group"},
		{From: domain.StepAwaitingMonth, To: domain.StepAwaitingDay, Guard: "Jan..Dec"},
		{From: domain.StepAwaitingDay, To: domain.StepAwaitingAttendees, Guard: "1..31"},
		{From: domain.StepAwaitingAttendees, To: domain.StepAwaitingAttendees, Guard: "name"},
		{From: domain.StepAwaitingAttendees, To: domain.StepAwaitingAttendeeRemoval, Guard: domain.TokenRemove},
		{From: domain.StepAwaitingAttendeeRemoval, To: domain.StepAwaitingAttendeeRemoval, Guard: "name"},
		{From: domain.StepAwaitingAttendeeRemoval, To: domain.StepAwaitingAttendees, Guard: domain.TokenDone},
		{From: domain.StepAwaitingAttendees, To: domain.StepAwaitingValidAbsentees, Guard: "NONE|DONE"},
		{From: domain.StepAwaitingValidAbsentees, To: domain.StepAwaitingValidAbsentees, Guard: "name"},
		{From: domain.StepAwaitingValidAbsentees, To: domain.StepAwaitingAbsenteeRemoval, Guard: domain.TokenRemove},
		{From: domain.StepAwaitingAbsenteeRemoval, To: domain.StepAwaitingAbsenteeRemoval, Guard: "name"},
		{From: domain.StepAwaitingAbsenteeRemoval, To: domain.StepAwaitingValidAbsentees, Guard: domain.TokenDone},
		{From: domain.StepAwaitingValidAbsentees, To: domain.StepCommitting, Guard: "NONE|DONE"},
		{From: domain.StepCommitting, To: domain.StepIdle, Guard: "summary"},
		{From: domain.StepAwaitingVerification, To: domain.StepIdle, Guard: domain.CommandExit},
	}
}
