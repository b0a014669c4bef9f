package main

import (
	"os"

	"github.com/podyouths/rollcall/internal/cli"
	"github.com/podyouths/rollcall/internal/presentation/tui"
	"github.com/podyouths/rollcall/pkg/runner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Take attendance from the terminal",
	Long:  `Holds the attendance conversation on stdin/stdout. With --json, input and output are JSON lines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		chatID, _ := cmd.Flags().GetString("chat-id")
		name, _ := cmd.Flags().GetString("name")
		jsonMode, _ := cmd.Flags().GetBool("json")

		return cli.RunChat(cmd.Context(), app, os.Stdin, os.Stdout, cli.ChatOptions{
			ChatID:      chatID,
			SenderName:  name,
			JSON:        jsonMode,
			AutoStart:   !jsonMode,
			Interactive: !jsonMode && tui.IsInteractive(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("chat-id", runner.DefaultChatID, "Conversation identifier (sessions are kept per chat)")
	chatCmd.Flags().String("name", os.Getenv("USER"), "Name used in greetings")
	chatCmd.Flags().Bool("json", false, "Read and write JSON lines")
}
