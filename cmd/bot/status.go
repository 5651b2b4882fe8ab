package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/domain/greeting"
	"birthday_reminder_bot/internal/infra/config"
	idb "birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/logger"
	"birthday_reminder_bot/internal/infra/scheduler"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's birthdays, greetings already sent and the next wake time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			service := app.NewBirthdayService(idb.NewBirthdayRepository(db), logger.Component("birthday_service"))
			batches, err := service.BirthdaysToday(cmd.Context())
			if err != nil {
				return err
			}
			sent, err := idb.NewGreetingLogRepository(db).ListByDate(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			wake, err := scheduler.NewWakeSchedule(cfg.GreetingTime, cfg.GreetingCronSpec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeStatus(out, time.Now(), batches, sent, wake)

			if cfg.BackupEnabled && db.Dialect == idb.SQLite {
				manager, err := newBackupManager(db, cfg)
				if err != nil {
					return err
				}
				return printBackupSizes(cmd, manager)
			}
			return nil
		},
	}
}

func writeStatus(out io.Writer, now time.Time, batches []greeting.Batch, sent []greeting.LogEntry, wake scheduler.WakeSchedule) {
	fmt.Fprintf(out, "Today: %s\n", now.Format(greeting.DateLayout))
	if len(batches) == 0 {
		fmt.Fprintln(out, "No birthdays today.")
	}
	for _, b := range batches {
		fmt.Fprintf(out, "  chat %d: %s\n", b.ChatID, strings.Join(b.Names, ", "))
	}

	fmt.Fprintf(out, "Greetings sent today: %d\n", len(sent))
	for _, e := range sent {
		fmt.Fprintf(out, "  chat %d at %s (%d people)\n", e.ChatID, e.SentAt.Local().Format("15:04:05"), e.Recipients)
	}
	fmt.Fprintf(out, "Next greeting check: %s\n", wake.Next(now).Format("2006-01-02 15:04"))
}
