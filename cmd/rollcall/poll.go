package main

import (
	"github.com/podyouths/rollcall/internal/cli"
	"github.com/podyouths/rollcall/pkg/runner"
	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Answer Telegram messages by long polling",
	Long:  `Removes any registered webhook and answers the bot's updates until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		signals := runner.NewSignalManager(cmd.Context())
		defer signals.Stop()
		return cli.Poll(signals.Context(), app)
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
}
