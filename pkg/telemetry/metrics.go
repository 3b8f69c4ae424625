package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── API / lifecycle ─────────────────────────────────────────────────────────

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "lifecycle",
		Name:      "tasks_created_total",
		Help:      "Total tasks created.",
	})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Transition requests, labelled by action and outcome.",
	}, []string{"action", "outcome"})

	HonorAwarded = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gtm",
		Subsystem: "lifecycle",
		Name:      "honor_awarded",
		Help:      "Honor credited to assignees at task completion.",
		Buckets:   []float64{-100, -50, 0, 25, 50, 100, 150, 200},
	})

	ExpAwarded = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gtm",
		Subsystem: "lifecycle",
		Name:      "exp_awarded",
		Help:      "EXP credited to assignees at task completion.",
		Buckets:   []float64{0, 50, 100, 250, 500, 1000, 2500},
	})

	// ─── Notification bus ────────────────────────────────────────────────────────

	NotifyEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "notify",
		Name:      "events_published_total",
		Help:      "Notification events published to the bus, by kind.",
	}, []string{"kind"})

	NotifyPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "notify",
		Name:      "publish_failures_total",
		Help:      "Notification events dropped after exhausting publish retries.",
	})

	// ─── Notifier service ────────────────────────────────────────────────────────

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "notifier",
		Name:      "delivered_total",
		Help:      "Notifications delivered, labelled by sink.",
	}, []string{"sink"})

	NotifierEventErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "notifier",
		Name:      "event_errors_total",
		Help:      "Events the notifier failed to process.",
	})

	RemindersEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "notifier",
		Name:      "reminders_emitted_total",
		Help:      "Deadline reminder events emitted by the cron sweep.",
	})

	// ─── Store ───────────────────────────────────────────────────────────────────

	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gtm",
		Subsystem: "store",
		Name:      "purchases_total",
		Help:      "Store purchase attempts, labelled by outcome.",
	}, []string{"outcome"})
)
