// Package backup creates rotating copies of the SQLite birthday database.
//
// Hourly backups keep the last 168 files (7 days), weekly backups the last 52
// (one year) and yearly backups are never pruned.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"birthday_reminder_bot/internal/infra/database"
	"birthday_reminder_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// Type is a backup rotation class.
type Type string

const (
	Hourly Type = "hourly"
	Weekly Type = "weekly"
	Yearly Type = "yearly"
)

const filePrefix = "birthday_bot_"

var (
	ErrUnknownType       = errors.New("unknown backup type")
	ErrBackupUnsupported = errors.New("backups are only supported for sqlite databases")
)

// Types lists the rotation classes in display order.
var Types = []Type{Hourly, Weekly, Yearly}

// ParseType validates a backup type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Hourly, Weekly, Yearly:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// retention is the number of files kept per type; 0 keeps everything.
func (t Type) retention() int {
	switch t {
	case Hourly:
		return 168
	case Weekly:
		return 52
	default:
		return 0
	}
}

// stamp names the backup so that one file exists per hour, week or year.
func (t Type) stamp(now time.Time) string {
	switch t {
	case Hourly:
		return now.Format("20060102_1500")
	case Weekly:
		return fmt.Sprintf("%d_week%02d", now.Year(), mondayWeek(now))
	default:
		return now.Format("2006")
	}
}

// mondayWeek numbers weeks from the first Monday of the year (days before it are week 0).
func mondayWeek(t time.Time) int {
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return (t.YearDay() - 1 + 7 - weekday) / 7
}

// Uploader copies a finished backup somewhere off the host.
type Uploader interface {
	Upload(ctx context.Context, key, path string) error
}

type Manager struct {
	db       *database.DB
	baseDir  string
	uploader Uploader
	logger   *logrus.Entry
	now      func() time.Time

	active atomic.Int32
}

// NewManager prepares the hourly/weekly/yearly directories under baseDir.
func NewManager(db *database.DB, baseDir string, logger *logrus.Entry) (*Manager, error) {
	for _, t := range Types {
		if err := os.MkdirAll(filepath.Join(baseDir, string(t)), 0o750); err != nil {
			return nil, fmt.Errorf("backup: create directory: %w", err)
		}
	}
	return &Manager{
		db:      db,
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// WithUploader enables the offsite copy of every backup.
func (m *Manager) WithUploader(u Uploader) *Manager {
	m.uploader = u
	return m
}

func (m *Manager) dir(t Type) string {
	return filepath.Join(m.baseDir, string(t))
}

// Backup writes a consistent snapshot of the database for the given type, prunes old
// files of that type and returns the snapshot path. A failed upload is logged only.
func (m *Manager) Backup(ctx context.Context, t Type) (string, error) {
	if _, err := ParseType(string(t)); err != nil {
		return "", err
	}
	if m.db.Dialect != database.SQLite {
		return "", ErrBackupUnsupported
	}
	m.active.Add(1)
	defer m.active.Add(-1)
	logger := m.logger.WithField("backup_type", t)

	name := fmt.Sprintf("%s%s_%s.db", filePrefix, t, t.stamp(m.now()))
	path := filepath.Join(m.dir(t), name)

	// VACUUM INTO refuses to overwrite an existing file.
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.Backups.WithLabelValues(string(t), "failed").Inc()
		return "", fmt.Errorf("backup: remove previous %s: %w", name, err)
	}
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		metrics.Backups.WithLabelValues(string(t), "failed").Inc()
		return "", fmt.Errorf("backup: snapshot %s: %w", name, err)
	}
	metrics.Backups.WithLabelValues(string(t), "ok").Inc()
	logger.WithField("file", name).Info("Created backup")

	if err := m.cleanup(t); err != nil {
		logger.WithError(err).Error("Error cleaning old backups")
	}

	if m.uploader != nil {
		key := fmt.Sprintf("%s/%s", t, name)
		if err := m.uploader.Upload(ctx, key, path); err != nil {
			logger.WithError(err).Error("Failed to upload backup")
		} else {
			logger.WithField("key", key).Info("Backup uploaded")
		}
	}
	return path, nil
}

// InProgress reports whether a backup is running. The snapshot holds the only
// SQLite connection, so other queries wait until it finishes.
func (m *Manager) InProgress() bool {
	return m.active.Load() > 0
}

func (m *Manager) list(t Type) ([]string, error) {
	entries, err := os.ReadDir(m.dir(t))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), ".db") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) cleanup(t Type) error {
	keep := t.retention()
	if keep == 0 {
		return nil
	}
	names, err := m.list(t)
	if err != nil {
		return fmt.Errorf("backup: list %s: %w", t, err)
	}
	if len(names) <= keep {
		return nil
	}
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(m.dir(t), name)); err != nil {
			return fmt.Errorf("backup: delete %s: %w", name, err)
		}
		m.logger.WithFields(logrus.Fields{"backup_type": t, "file": name}).Info("Deleted old backup")
	}
	return nil
}

// Sizes returns the total size in bytes of the stored backups per type.
func (m *Manager) Sizes() (map[Type]int64, error) {
	sizes := make(map[Type]int64, len(Types))
	for _, t := range Types {
		names, err := m.list(t)
		if err != nil {
			return nil, fmt.Errorf("backup: list %s: %w", t, err)
		}
		for _, name := range names {
			info, err := os.Stat(filepath.Join(m.dir(t), name))
			if err != nil {
				return nil, fmt.Errorf("backup: stat %s: %w", name, err)
			}
			sizes[t] += info.Size()
		}
	}
	return sizes, nil
}
