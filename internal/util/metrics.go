package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservations_created_total",
		Help: "Total number of stock reservations created",
	})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_failed_total",
		Help: "Total number of failed stock reservations",
	}, []string{"reason"})

	ReservationsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservations_expired_total",
		Help: "Total number of reservations expired by the sweep",
	})

	ReservationsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reservations_released_total",
		Help: "Total number of reservations explicitly released",
	})

	ReserveLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_reserve_latency_seconds",
		Help:    "Latency of stock reservation operations",
		Buckets: prometheus.DefBuckets,
	})

	TransfersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_transfers_created_total",
		Help: "Total number of transfers created",
	})

	TransfersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_transfers_completed_total",
		Help: "Total number of transfers completed",
	})

	TransfersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_transfers_cancelled_total",
		Help: "Total number of transfers cancelled",
	})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_low_stock_alerts_total",
		Help: "Total number of low stock alerts raised",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_sweep_duration_seconds",
		Help:    "Duration of expired reservation sweeps",
		Buckets: prometheus.DefBuckets,
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_cache_hits_total",
		Help: "Total number of inventory cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_cache_misses_total",
		Help: "Total number of inventory cache misses",
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_events_published_total",
		Help: "Total number of domain events published",
	}, []string{"type"})

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
