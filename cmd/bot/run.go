package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"birthday_reminder_bot/internal/app"
	"birthday_reminder_bot/internal/infra/backup"
	"birthday_reminder_bot/internal/infra/config"
	idb "birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/httpserver"
	"birthday_reminder_bot/internal/infra/logger"
	"birthday_reminder_bot/internal/infra/scheduler"
	"birthday_reminder_bot/internal/infra/session"
	"birthday_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot, the daily greeting loop and the backup jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			logger.Init(cfg)
			return run(cmd.Context(), cfg)
		},
	}
}

func run(parent context.Context, cfg *config.AppConfig) error {
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"greeting_time": cfg.GreetingTime,
		"upcoming_days": cfg.UpcomingDays,
	}).Info("Birthday Reminder Bot starting...")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer db.Close()
	mainLogger.WithField("dialect", db.Dialect).Info("Database connection established successfully.")

	// Initialize Repositories and Services
	birthdayRepo := idb.NewBirthdayRepository(db)
	greetingLog := idb.NewGreetingLogRepository(db)
	birthdayService := app.NewBirthdayService(birthdayRepo, logger.Component("birthday_service"))

	sessions, closeSessions, err := newSessionStore(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg.TelegramToken, logger.Component("telegram"))
	if err != nil {
		return err
	}
	adapter := telegram.NewTelebotAdapter(bot)

	if err := telegram.RegisterBotCommands(bot, cfg.UpcomingDays, logger.Component("telegram")); err != nil {
		mainLogger.WithError(err).Warn("Bot command menu not published")
	}
	telegram.NewBirthdayHandlers(ctx, birthdayService, sessions, adapter, cfg.UpcomingDays, logger.Component("telegram")).Register(bot)
	mainLogger.Info("Telegram handlers registered.")

	// Initialize the daily greeting loop
	wake, err := scheduler.NewWakeSchedule(cfg.GreetingTime, cfg.GreetingCronSpec)
	if err != nil {
		return fmt.Errorf("invalid greeting schedule: %w", err)
	}
	greetingService := app.NewGreetingService(birthdayService, adapter, greetingLog, logger.Component("greeting_service"))
	greetingScheduler := scheduler.NewGreetingScheduler(greetingService, wake, logger.Component("greeting_scheduler"))

	// Backups only apply to SQLite; Postgres is backed up by its operator.
	var (
		backups     *backup.Manager
		maintenance *scheduler.MaintenanceScheduler
	)
	if cfg.BackupEnabled && db.Dialect == idb.SQLite {
		backups, err = newBackupManager(db, cfg)
		if err != nil {
			return err
		}
		maintenance = scheduler.NewMaintenanceScheduler(backups, scheduler.MaintenanceSpecs{
			Hourly: cfg.CronSpecBackupHourly,
			Weekly: cfg.CronSpecBackupWeekly,
			Yearly: cfg.CronSpecBackupYearly,
		}, logger.Component("maintenance"))
		if err := maintenance.Start(); err != nil {
			return err
		}
	}

	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	schedulerDone := make(chan error, 1)
	go func() { schedulerDone <- greetingScheduler.Start(ctx) }()

	var httpServer *httpserver.Server
	if cfg.MetricsAddr != "" {
		httpServer = httpserver.New(cfg.MetricsAddr, db, greetingScheduler, logger.Component("http"))
		if backups != nil {
			httpServer.WithBackups(backups)
		}
		go func() {
			if err := httpServer.Start(); err != nil {
				mainLogger.WithError(err).Error("HTTP server failed")
			}
		}()
	}

	<-ctx.Done() // Block until a signal is received
	mainLogger.Info("Shutting down application...")

	greetingScheduler.Stop()
	if err := <-schedulerDone; err != nil && !errors.Is(err, scheduler.ErrAlreadyRunning) {
		mainLogger.WithError(err).Error("Greeting scheduler stopped with error")
	}
	bot.Stop()
	if maintenance != nil {
		maintenance.Stop()
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("HTTP server forced to shutdown")
		}
	}

	mainLogger.Info("Application shut down gracefully.")
	return nil
}

// newSessionStore picks Redis when REDIS_URL is set, in-memory state otherwise.
func newSessionStore(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (session.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("Conversation state kept in memory")
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	client, err := session.NewRedisClientFromURL(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Conversation state kept in Redis")
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}

func newBackupManager(db *idb.DB, cfg *config.AppConfig) (*backup.Manager, error) {
	manager, err := backup.NewManager(db, cfg.BackupDir, logger.Component("backup"))
	if err != nil {
		return nil, err
	}
	if cfg.BackupS3Bucket != "" {
		uploader, err := backup.NewS3Uploader(cfg.AWSRegion, cfg.BackupS3Bucket, "birthday_bot")
		if err != nil {
			return nil, err
		}
		manager.WithUploader(uploader)
	}
	return manager, nil
}
