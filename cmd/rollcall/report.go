package main

import (
	"github.com/podyouths/rollcall/internal/cli"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the attendance of a cell group on one date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cell, _ := cmd.Flags().GetString("cell")
		raw, _ := cmd.Flags().GetString("date")
		date, err := domain.ParseDate(raw)
		if err != nil {
			return err
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return cli.WriteReport(cmd.Context(), cmd.OutOrStdout(), app.Gateway, cell, date)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("cell", "", "Cell group name")
	reportCmd.Flags().String("date", "", "Meeting date as YYYY-MM-DD")
	_ = reportCmd.MarkFlagRequired("cell")
	_ = reportCmd.MarkFlagRequired("date")
}
