package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// WakeSchedule computes the next time the greeting loop should wake up.
// cron.Schedule satisfies it.
type WakeSchedule interface {
	Next(now time.Time) time.Time
}

// DailyAt wakes once per day at a fixed local wall-clock time.
type DailyAt struct {
	Hour   int
	Minute int
}

// Next returns today at Hour:Minute if now is strictly before it, otherwise tomorrow at Hour:Minute.
func (d DailyAt) Next(now time.Time) time.Time {
	wake := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if now.Before(wake) {
		return wake
	}
	return time.Date(now.Year(), now.Month(), now.Day()+1, d.Hour, d.Minute, 0, 0, now.Location())
}

func (d DailyAt) String() string {
	return fmt.Sprintf("daily at %02d:%02d", d.Hour, d.Minute)
}

// ParseDailyAt parses "HH:MM".
func ParseDailyAt(s string) (DailyAt, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return DailyAt{}, fmt.Errorf("wake time %q is not in HH:MM format", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return DailyAt{}, fmt.Errorf("invalid hour in wake time %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return DailyAt{}, fmt.Errorf("invalid minute in wake time %q", s)
	}
	return DailyAt{Hour: hour, Minute: minute}, nil
}

// NewWakeSchedule returns a cron-based schedule when cronSpec is set, otherwise DailyAt(dailyAt).
func NewWakeSchedule(dailyAt, cronSpec string) (WakeSchedule, error) {
	if cronSpec != "" {
		sched, err := cron.ParseStandard(cronSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid greeting cron spec %q: %w", cronSpec, err)
		}
		return sched, nil
	}
	return ParseDailyAt(dailyAt)
}
