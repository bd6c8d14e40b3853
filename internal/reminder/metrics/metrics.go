// Package metrics exposes the reminder engine's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docwatch/internal/reminder/models"
)

var (
	remindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docwatch_reminders_dispatched_total",
		Help: "Reminders successfully dispatched, by channel.",
	}, []string{"channel"})

	reminderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docwatch_reminder_failures_total",
		Help: "Reminder dispatch failures, by channel.",
	}, []string{"channel"})

	callsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docwatch_calls_placed_total",
		Help: "Voice reminder calls successfully placed.",
	})

	voiceConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docwatch_voice_confirmations_total",
		Help: "Voice reminders confirmed by recipient keypress.",
	})

	documentsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docwatch_documents_scanned_total",
		Help: "Tracked documents examined by scheduler ticks.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docwatch_tick_duration_seconds",
		Help:    "Duration of scheduler ticks.",
		Buckets: prometheus.DefBuckets,
	})
)

func ReminderDispatched(channel models.Channel) {
	remindersDispatched.WithLabelValues(string(channel)).Inc()
}

func ReminderFailed(channel models.Channel) {
	reminderFailures.WithLabelValues(string(channel)).Inc()
}

func CallPlaced() {
	callsPlaced.Inc()
}

func VoiceConfirmed() {
	voiceConfirmations.Inc()
}

func DocumentsScanned(count int) {
	documentsScanned.Add(float64(count))
}

func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}
