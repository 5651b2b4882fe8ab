// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GreetingCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_greeting_cycles_total",
			Help: "Greeting cycles run by the daily scheduler",
		},
		[]string{"result"}, // ok, failed, panic
	)

	GreetingsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_greetings_total",
			Help: "Greeting messages dispatched per chat",
		},
		[]string{"status"}, // sent, failed, skipped
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_registrations_total",
			Help: "Birthday registrations handled",
		},
		[]string{"action"}, // created, updated, deleted
	)

	Backups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_backups_total",
			Help: "Database backups attempted",
		},
		[]string{"type", "status"},
	)

	NextWakeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "birthday_scheduler_next_wake_timestamp_seconds",
			Help: "Unix time of the next scheduled greeting cycle",
		},
	)
)
