package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	OrderNumberCollisionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_number_collisions_total",
		Help: "Total number of order number collisions retried",
	})

	OrderValuePaise = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_value_paise",
		Help:    "Order totals in paise",
		Buckets: prometheus.ExponentialBuckets(5000, 2, 10),
	})

	ProductsBackfilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_backfilled_total",
		Help: "Total number of static catalog products upserted into the product store",
	})

	ProofUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_proof_uploads_total",
		Help: "Total number of payment proof uploads",
	}, []string{"result"})

	PaymentReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reviews_total",
		Help: "Total number of payment review transitions",
	}, []string{"outcome"})

	FulfillmentUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_updates_total",
		Help: "Total number of fulfillment stage changes",
	}, []string{"stage"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"route"})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of customer notifications",
	}, []string{"event_type", "result"})

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
