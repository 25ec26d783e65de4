package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated    prometheus.Counter
	RegistrationConflicts   prometheus.Counter
	RegistrationsRejectedBy *prometheus.CounterVec
	RequestsAccepted        prometheus.Counter
	RequestsRejected        prometheus.Counter
	SettlementsApplied      prometheus.Counter
	SettlementsReplayed     prometheus.Counter
	IPNSignatureFailures    prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_registrations_created_total",
			Help: "Registration requests accepted into the pending queue",
		}),
		RegistrationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_registration_conflicts_total",
			Help: "Registration attempts rejected by the username uniqueness guard",
		}),
		RegistrationsRejectedBy: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "resident_manager_registration_validation_failures_total",
			Help: "Registration attempts failing field validation",
		}, []string{"field"}),
		RequestsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_requests_accepted_total",
			Help: "Queue rows admitted into the resident table",
		}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_requests_rejected_total",
			Help: "Queue rows deleted by admin rejection",
		}),
		SettlementsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_settlements_applied_total",
			Help: "Payment notifications credited exactly once",
		}),
		SettlementsReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_settlements_replayed_total",
			Help: "Duplicate payment notifications answered without a second credit",
		}),
		IPNSignatureFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "resident_manager_ipn_signature_failures_total",
			Help: "Gateway notifications failing HMAC or merchant code verification",
		}),
	}
}
