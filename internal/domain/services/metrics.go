package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	draftOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_draft_operations_total",
			Help: "Number of draft operations",
		},
		[]string{"operation"},
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_submissions_total",
			Help: "Number of draft submissions to the backend",
		},
		[]string{"resource", "outcome"},
	)

	auditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_audit_events_total",
			Help: "Number of content events handled by the audit log",
		},
		[]string{"outcome"},
	)
)
