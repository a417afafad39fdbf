package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_started_total",
		Help: "Total number of checkout sessions started",
	})

	CartAggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_aggregations_total",
		Help: "Total number of cart aggregations by result",
	}, []string{"result"})

	CompositionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_composition_errors_total",
		Help: "Total number of carts rejected for skeleton/base set composition",
	}, []string{"family"})

	NoEligibleMethodTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipping_no_eligible_method_total",
		Help: "Total number of carts for which no shipping method is offered",
	})

	FeeResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_fee_resolutions_total",
		Help: "Total number of shipping fee resolutions by flow and result",
	}, []string{"flow", "result"})

	PaymentAuthorizationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_authorizations_total",
		Help: "Total number of approved payment authorizations",
	})

	CheckoutsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_completed_total",
		Help: "Total number of completed checkouts",
	})

	ConfirmationResendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confirmation_resends_total",
		Help: "Total number of confirmation resend requests",
	})

	ReferenceDataLoadLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reference_data_load_latency_seconds",
		Help:    "Latency of reference table loads",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	ReferenceDataLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reference_data_load_failures_total",
		Help: "Total number of failed reference table loads",
	}, []string{"table"})

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
