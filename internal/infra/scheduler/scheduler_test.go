package scheduler

import (
	"context"
	"sync"
	"testing"

	"birthday_reminder_bot/internal/infra/backup"
)

type recordingBackups struct {
	mu    sync.Mutex
	types []backup.Type
}

func (r *recordingBackups) Backup(_ context.Context, t backup.Type) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, t)
	return "/tmp/" + string(t), nil
}

func TestMaintenanceScheduler_RegistersConfiguredJobs(t *testing.T) {
	t.Parallel()

	s := NewMaintenanceScheduler(&recordingBackups{}, MaintenanceSpecs{
		Hourly: "0 * * * *",
		Yearly: "0 0 1 1 *",
	}, testLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if got := len(s.cronEngine.Entries()); got != 2 {
		t.Errorf("entries = %d, want 2 (weekly disabled)", got)
	}
}

func TestMaintenanceScheduler_InvalidSpec(t *testing.T) {
	t.Parallel()

	s := NewMaintenanceScheduler(&recordingBackups{}, MaintenanceSpecs{Weekly: "every sunday"}, testLogger())
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start with invalid spec should fail")
	}
}

func TestMaintenanceScheduler_RunBackup(t *testing.T) {
	t.Parallel()

	backups := &recordingBackups{}
	s := NewMaintenanceScheduler(backups, MaintenanceSpecs{}, testLogger())
	s.runBackup(backup.Weekly)

	if len(backups.types) != 1 || backups.types[0] != backup.Weekly {
		t.Errorf("backups run = %v, want [weekly]", backups.types)
	}
}
