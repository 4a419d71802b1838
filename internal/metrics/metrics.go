package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitcore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	EntitlementChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_entitlement_checks_total",
			Help: "Total number of entitlement checks",
		},
		[]string{"allowed", "reason"},
	)

	CreditAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_credit_adjustments_total",
			Help: "Total number of credit ledger adjustments",
		},
		[]string{"mode", "clamped"},
	)

	MembershipTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_membership_transitions_total",
			Help: "Total number of membership status transitions",
		},
		[]string{"to", "reason"},
	)

	ProviderSyncFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_provider_sync_failures_total",
			Help: "Total number of failed payment provider calls",
		},
		[]string{"op"},
	)

	CascadeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_cascade_operations_total",
			Help: "Total number of cascade operations",
		},
		[]string{"kind", "outcome"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitcore_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitcore_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordEntitlementCheck(allowed bool, reason string) {
	EntitlementChecksTotal.WithLabelValues(boolLabel(allowed), reason).Inc()
}

func RecordCreditAdjustment(mode string, clamped bool) {
	CreditAdjustmentsTotal.WithLabelValues(mode, boolLabel(clamped)).Inc()
}

func RecordMembershipTransition(to, reason string) {
	MembershipTransitionsTotal.WithLabelValues(to, reason).Inc()
}

func RecordProviderFailure(op string) {
	ProviderSyncFailuresTotal.WithLabelValues(op).Inc()
}

func RecordCascade(kind, outcome string) {
	CascadeOperationsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
