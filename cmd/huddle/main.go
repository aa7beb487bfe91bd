package main

import (
	"os"

	"github.com/spf13/cobra"

	"huddle/internal/interfaces/cli/migrate"
	"huddle/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "huddle",
		Short: "Huddle - a real-time virtual office presence server",
		Long:  `Huddle tracks live avatars on a shared office map: rooms, movement, zones, chat, call signaling and a collaborative task board.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
