package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	run := runCmd()
	root := &cobra.Command{
		Use:           "bot",
		Short:         "Telegram bot that greets chat members on their birthday",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run.RunE, // Running without a subcommand starts the bot
	}
	root.AddCommand(run, backupCmd(), statusCmd())
	return root
}
