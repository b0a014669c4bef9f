package main

import (
	"fmt"
	"os"

	"github.com/podyouths/rollcall/internal/cli"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the member roster",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Enroll the members listed in a YAML file",
	Long: `Reads a document of the form

  members:
    - name: Alice
      cell_group: Bouquet
      role: Leader
      birth_date: 1990-05-01

and enrolls each member into the configured store. Members already enrolled are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		defaults := domain.Member{Role: app.Config.Enrollment.Role, BirthDate: app.Config.EnrollmentBirthDate()}
		res, err := cli.ImportRoster(cmd.Context(), app.Gateway, f, defaults)
		out := cmd.OutOrStdout()
		for _, m := range res.Enrolled {
			fmt.Fprintf(out, "Enrolled %s\n", m)
		}
		for _, m := range res.Skipped {
			fmt.Fprintf(out, "Skipped %s (already enrolled)\n", m)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterImportCmd)
}
