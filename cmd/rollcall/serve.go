package main

import (
	"github.com/podyouths/rollcall/internal/cli"
	"github.com/podyouths/rollcall/pkg/runner"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the JSON chat API, attendance reports and Prometheus metrics.
When telegram.token and telegram.webhook_url are configured, the Telegram webhook is
registered and answered on the same listener.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			app.Config.HTTP.Addr = addr
		}

		signals := runner.NewSignalManager(cmd.Context())
		defer signals.Stop()
		return cli.Serve(signals.Context(), app)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
