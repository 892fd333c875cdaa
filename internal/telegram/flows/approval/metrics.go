package approval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paywall_submissions_total",
		Help: "Payment proofs received from users.",
	})

	adminDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paywall_admin_deliveries_total",
		Help: "Payment proofs forwarded to admins by result.",
	}, []string{"result"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paywall_decisions_total",
		Help: "Admin decisions by outcome.",
	}, []string{"outcome"})

	grantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paywall_grants_total",
		Help: "Committed subscription grants by source.",
	}, []string{"source"})
)
