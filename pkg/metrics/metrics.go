package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records bearer token verifications by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_auth_attempts_total",
			Help: "Total number of bearer token verifications",
		},
		[]string{"result"},
	)

	// CapabilityChecks counts capability evaluations and their outcome (allow|deny).
	CapabilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_capability_checks_total",
			Help: "Total number of organization capability checks",
		},
		[]string{"capability", "result"},
	)

	// ViewCacheResults counts view cache lookups by route and result (hit|miss|error).
	ViewCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_view_cache_results_total",
			Help: "View cache lookups by outcome",
		},
		[]string{"route", "result"},
	)

	// MailDeliveries counts outbound email attempts by kind and result.
	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_mail_deliveries_total",
			Help: "Outbound email deliveries",
		},
		[]string{"kind", "result"},
	)

	// FormSubmissions counts marketing form submissions by form and priority.
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_form_submissions_total",
			Help: "Accepted marketing form submissions",
		},
		[]string{"form", "priority"},
	)

	// MaintenanceRuns tracks scheduled maintenance executions.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saiplatform_maintenance_runs_total",
			Help: "Maintenance job executions by job and result",
		},
		[]string{"job", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saiplatform_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
