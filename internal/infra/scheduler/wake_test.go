package scheduler

import (
	"testing"
	"time"
)

func TestDailyAt_Next(t *testing.T) {
	t.Parallel()

	at8 := DailyAt{Hour: 8}
	loc := time.Local
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before wake", time.Date(2024, 6, 15, 7, 59, 59, 999, loc), time.Date(2024, 6, 15, 8, 0, 0, 0, loc)},
		{"exactly wake", time.Date(2024, 6, 15, 8, 0, 0, 0, loc), time.Date(2024, 6, 16, 8, 0, 0, 0, loc)},
		{"after wake", time.Date(2024, 6, 15, 8, 0, 0, 1, loc), time.Date(2024, 6, 16, 8, 0, 0, 0, loc)},
		{"midnight", time.Date(2024, 6, 15, 0, 0, 0, 0, loc), time.Date(2024, 6, 15, 8, 0, 0, 0, loc)},
		{"month rollover", time.Date(2024, 1, 31, 9, 0, 0, 0, loc), time.Date(2024, 2, 1, 8, 0, 0, 0, loc)},
		{"year rollover", time.Date(2024, 12, 31, 23, 0, 0, 0, loc), time.Date(2025, 1, 1, 8, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := at8.Next(tt.now); !got.Equal(tt.want) {
				t.Errorf("Next(%s) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestDailyAt_AtMostOncePerDay(t *testing.T) {
	t.Parallel()

	at8 := DailyAt{Hour: 8}
	now := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for range 30 {
		wake := at8.Next(now)
		day := wake.Format("2006-01-02")
		if seen[day] {
			t.Fatalf("woke twice on %s", day)
		}
		seen[day] = true
		now = wake
	}
}

func TestParseDailyAt(t *testing.T) {
	t.Parallel()

	got, err := ParseDailyAt("08:30")
	if err != nil || got != (DailyAt{Hour: 8, Minute: 30}) {
		t.Fatalf("ParseDailyAt(08:30) = %+v, %v", got, err)
	}
	for _, bad := range []string{"8", "24:00", "08:60", "aa:bb", ""} {
		if _, err := ParseDailyAt(bad); err == nil {
			t.Errorf("ParseDailyAt(%q) expected error", bad)
		}
	}
}

func TestNewWakeSchedule_CronMatchesDailyAt(t *testing.T) {
	t.Parallel()

	fromCron, err := NewWakeSchedule("", "0 8 * * *")
	if err != nil {
		t.Fatalf("cron schedule: %v", err)
	}
	daily, err := NewWakeSchedule("08:00", "")
	if err != nil {
		t.Fatalf("daily schedule: %v", err)
	}

	for _, now := range []time.Time{
		time.Date(2024, 6, 15, 7, 0, 0, 0, time.Local),
		time.Date(2024, 6, 15, 8, 0, 0, 0, time.Local),
		time.Date(2024, 6, 15, 20, 0, 0, 0, time.Local),
	} {
		if a, b := fromCron.Next(now), daily.Next(now); !a.Equal(b) {
			t.Errorf("now=%s: cron=%s daily=%s", now, a, b)
		}
	}

	if _, err := NewWakeSchedule("", "not a cron"); err == nil {
		t.Error("invalid cron spec should fail")
	}
}
