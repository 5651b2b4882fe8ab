package scheduler

import (
	"context"
	"fmt"
	"time"

	"birthday_reminder_bot/internal/infra/backup"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const backupJobTimeout = 10 * time.Minute

// BackupRunner creates one backup of the given rotation class.
type BackupRunner interface {
	Backup(ctx context.Context, t backup.Type) (string, error)
}

// MaintenanceSpecs are the cron expressions of the database backup jobs.
// An empty spec disables that job.
type MaintenanceSpecs struct {
	Hourly string // e.g., "0 * * * *" (top of every hour)
	Weekly string // e.g., "0 0 * * 0" (Sunday midnight)
	Yearly string // e.g., "0 0 1 1 *" (January 1st)
}

// MaintenanceScheduler runs housekeeping jobs on cron schedules alongside the greeting loop.
type MaintenanceScheduler struct {
	cronEngine *cron.Cron
	backups    BackupRunner
	specs      MaintenanceSpecs
	logger     *logrus.Entry
}

func NewMaintenanceScheduler(backups BackupRunner, specs MaintenanceSpecs, logger *logrus.Entry) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		backups:    backups,
		specs:      specs,
		logger:     logger,
	}
}

// Start registers the configured jobs and starts the cron engine.
func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	jobs := []struct {
		spec string
		typ  backup.Type
	}{
		{s.specs.Hourly, backup.Hourly},
		{s.specs.Weekly, backup.Weekly},
		{s.specs.Yearly, backup.Yearly},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		typ := job.typ
		if _, err := s.cronEngine.AddFunc(job.spec, func() { s.runBackup(typ) }); err != nil {
			return fmt.Errorf("could not add %s backup cron job %q: %w", typ, job.spec, err)
		}
		s.logger.WithFields(logrus.Fields{"backup_type": typ, "spec": job.spec}).Info("Backup job scheduled")
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Maintenance scheduler started")
	return nil
}

func (s *MaintenanceScheduler) runBackup(t backup.Type) {
	logger := s.logger.WithField("backup_type", t)
	logger.Info("Cron job triggered for backup")

	ctx, cancel := context.WithTimeout(context.Background(), backupJobTimeout)
	defer cancel()
	path, err := s.backups.Backup(ctx, t)
	if err != nil {
		logger.WithError(err).Error("Error during scheduled backup")
		return
	}
	logger.WithField("path", path).Info("Scheduled backup finished")
}

// Stop waits for running jobs to finish.
func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Maintenance scheduler gracefully stopped")
}
