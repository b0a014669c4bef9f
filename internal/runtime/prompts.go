package runtime

import (
	"fmt"
	"html"
	"strings"

	"github.com/podyouths/rollcall/pkg/domain"
)

const (
	startText = "Hi! This is an attendance bot for PoD, the youth ministry of COSB. " +
		"If you wish to exit the attendance taking at any point of this exercise, simply type '/exit'." +
		"\n\n<b>Before we begin, I have to verify you. Please kindly insert the verification code.</b>"
	badCodeText = "<b>Sorry, that verification code is not valid. Please insert it again, or type '/exit' to leave.</b>"
	exitText    = "Type '/start' to begin a new attendance."
	retryText   = "<b>Sorry, I could not reach the attendance records just now. Please send your last message again.</b>"

	attendeesFirstHeader = "<b>Neat! Let's begin with our attendees. Who was present?</b>"
	attendeesNextHeader  = "<b>Got it! Any more attendees?</b>"
	attendeesFirstHelp   = "<i>Instructions: Select 'REMOVE' to remove attendees. Select 'NONE' if no attendees to add. " +
		"If there are new friends, type in their name! Preferably their first and last name, e.g. Nehemiah Tan.</i>"
	attendeesNextHelp = "<i>Instructions: Select 'REMOVE' to remove attendees. Select 'DONE' if no more attendees to add.</i>"

	absenteesFirstHeader = "<b>Great, let's move to our valid absentees. Who was absent with valid reasons?</b>"
	absenteesNextHeader  = "<b>Got it! Any more valid absentees?</b>"
	absenteesFirstHelp   = "<i>Instructions: Select 'REMOVE' to remove valid absentees. Select 'NONE' if no valid absentees to add.</i>"
	absenteesNextHelp    = "<i>Instructions: Select 'REMOVE' to remove valid absentees. Select 'DONE' if no more valid absentees to add.</i>"

	removedHeader = "<b>Okay, I've removed the member. Who else would you like to remove?</b>"
	removalHelp   = "<i>Instructions: If you have finished removing, press 'DONE'.</i>"
)

// escape makes user-provided text safe for the HTML subset used in replies.
func escape(s string) string {
	return html.EscapeString(s)
}

// greeting returns "Welcome Ana!" or "Welcome!" when the sender is unknown.
func greeting(prefix, name string) string {
	if name == "" {
		return prefix + "!"
	}
	return prefix + " " + escape(name) + "!"
}

// facts renders the collected answers as a numbered recap.
func facts(s *domain.Session) string {
	var lines []string
	if s.HasCellGroup() {
		lines = append(lines, "Cell: "+escape(s.CellGroup)+"\n")
	}
	if !s.Date.IsZero() {
		lines = append(lines, "Date: "+s.Date.Label()+"\n")
	}
	lines = append(lines, fmt.Sprintf("Attendees (%d):", s.Attendees.Len()))
	for i, name := range s.Attendees {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, escape(name)))
	}
	lines = append(lines, fmt.Sprintf("\nValid Absentees (%d):", s.ValidAbsentees.Len()))
	for i, name := range s.ValidAbsentees {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, escape(name)))
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func paragraphs(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// summary is the final recap sent after reconciliation.
func summary(s *domain.Session, sender string, report domain.CommitReport) string {
	thanks := "<b>Thank you. As a recap, I have collected these information:</b>"
	if sender != "" {
		thanks = "<b>Thank you " + escape(sender) + ". As a recap, I have collected these information:</b>"
	}
	parts := []string{thanks, facts(s)}
	if len(report.Enrolled) > 0 {
		names := make([]string, len(report.Enrolled))
		for i, n := range report.Enrolled {
			names[i] = escape(n)
		}
		parts = append(parts, "<i>New friends added to "+escape(s.CellGroup)+": "+strings.Join(names, ", ")+"</i>")
	}
	if report.OK() {
		parts = append(parts, "<b>I have proceeded to update their attendance. Type '/start' to begin a new attendance.</b>")
		return paragraphs(parts...)
	}
	parts = append(parts, "<b>Some entries could not be saved:</b>")
	for i, f := range report.Failed {
		parts = append(parts, fmt.Sprintf("%d. %s (%s)", i+1, escape(f.Name), f.Op))
	}
	parts = append(parts, "<b>The rest have been updated. Type '/start' to retry the missing entries.</b>")
	return paragraphs(parts...)
}
