package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdjustmentsAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_applied_total",
		Help: "Total number of stock adjustment mutations by action",
	}, []string{"action"})

	AdjustmentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_failed_total",
		Help: "Total number of failed stock adjustment mutations",
	}, []string{"reason"})

	TransfersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_transfers_completed_total",
		Help: "Total number of completed stock transfers",
	})

	TransfersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transfers_rejected_total",
		Help: "Total number of rejected stock transfers",
	}, []string{"reason"})

	LimitRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_limit_rejections_total",
		Help: "Total number of creations rejected by the usage gate",
	}, []string{"resource"})

	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created by kind",
	}, []string{"kind"})

	OrderApprovalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_approvals_total",
		Help: "Total number of order approval transitions by outcome",
	}, []string{"status"})

	StockMutationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_mutation_latency_seconds",
		Help:    "Latency of stock adjustment and transfer transactions",
		Buckets: prometheus.DefBuckets,
	})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notification emails by outcome",
	}, []string{"outcome"})

	LowStockProductsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "low_stock_products",
		Help: "Products at or below their low-stock threshold per tenant",
	}, []string{"org"})

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
