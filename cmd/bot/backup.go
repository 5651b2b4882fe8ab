package main

import (
	"fmt"

	"birthday_reminder_bot/internal/infra/backup"
	"birthday_reminder_bot/internal/infra/config"
	idb "birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/logger"

	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "backup <hourly|weekly|yearly>",
		Short:     "Create one database backup now and apply its retention",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(backup.Hourly), string(backup.Weekly), string(backup.Yearly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := backup.ParseType(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			logger.Init(cfg)

			db, err := idb.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			manager, err := newBackupManager(db, cfg)
			if err != nil {
				return err
			}
			path, err := manager.Backup(cmd.Context(), typ)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return printBackupSizes(cmd, manager)
		},
	}
}

func printBackupSizes(cmd *cobra.Command, manager *backup.Manager) error {
	sizes, err := manager.Sizes()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Backup sizes:")
	for _, t := range backup.Types {
		fmt.Fprintf(out, "  %-7s %8.2f MB\n", t, float64(sizes[t])/(1024*1024))
	}
	return nil
}
