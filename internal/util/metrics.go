package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ListingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listings_created_total",
		Help: "Total number of listings created",
	})

	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_confirmed_total",
		Help: "Total number of bookings confirmed after a successful payment",
	})

	ReviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews created",
	})

	AuthorizationDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorization_denied_total",
		Help: "Total number of requests rejected by an access policy",
	}, []string{"resource"})

	PaymentsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Total number of payments accepted by the provider and recorded",
	})

	PaymentInitiateFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiate_failed_total",
		Help: "Total number of payment initiations that failed",
	}, []string{"reason"})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of payments verified as successful",
	})

	PaymentFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of payments verified as failed or cancelled",
	})

	PaymentVerifyUnmatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verify_unmatched_total",
		Help: "Verifications whose provider status left the payment pending",
	}, []string{"provider_status"})

	PaymentsOrphanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_orphaned_total",
		Help: "Provider transactions opened without a local payment record",
	})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_provider_latency_seconds",
		Help:    "Latency of calls to the payment provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
