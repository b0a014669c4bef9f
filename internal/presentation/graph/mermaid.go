package graph

import (
	"fmt"
	"strings"

	"github.com/podyouths/rollcall/pkg/domain"
)

// Overlay contains session data to highlight on the graph.
type Overlay struct {
	CurrentStep domain.Step
}

// GenerateMermaid produces a Mermaid flowchart from the conversation edges.
// Shapes:
//   - idle: ((Circle))
//   - committing: [[Subroutine]]
//   - steps waiting for input: [/Parallelogram/]
func GenerateMermaid(edges []domain.Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[domain.Step]bool)
	var order []domain.Step
	for _, e := range edges {
		for _, s := range []domain.Step{e.From, e.To} {
			if !seen[s] {
				seen[s] = true
				order = append(order, s)
			}
		}
	}

	for _, s := range order {
		opener, closer := "[/", "/]"
		switch s {
		case domain.StepIdle:
			opener, closer = "((", "))"
		case domain.StepCommitting:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(string(s)), opener, s, closer))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.Guard != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Guard, "\"", "'"))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, sanitizeMermaidID(string(e.To))))
	}

	if overlay != nil && overlay.CurrentStep != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentStep))))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
