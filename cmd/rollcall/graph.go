package main

import (
	"fmt"

	"github.com/podyouths/rollcall/internal/presentation/graph"
	"github.com/podyouths/rollcall/internal/runtime"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the attendance conversation.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.Overlay
		if step, _ := cmd.Flags().GetString("highlight"); step != "" {
			if !domain.Step(step).Valid() {
				return fmt.Errorf("unknown step %q", step)
			}
			overlay = &graph.Overlay{CurrentStep: domain.Step(step)}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(runtime.Transitions(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("highlight", "", "Step to highlight, e.g. awaiting_attendees")
}
