package main

import (
	"fmt"
	"strings"

	"github.com/podyouths/rollcall"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rollcall",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rollcall version %s\n", strings.TrimSpace(rollcall.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
