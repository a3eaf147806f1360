package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ==================== Queue Model Metrics ====================

	// WaitingAreaOccupancy tracks the current number of requests parked
	// in the shared waiting area.
	WaitingAreaOccupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evse_waiting_area_occupancy",
		Help: "Number of requests currently in the waiting area",
	})

	// PileQueueDepth tracks the current number of requests queued at
	// each pile, not counting the one currently charging.
	PileQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evse_pile_queue_depth",
		Help: "Number of requests queued at a pile",
	}, []string{"pile_number"})

	// PileStatus tracks the current operational status of each pile as
	// a 0/1 indicator gauge per status label.
	PileStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evse_pile_status",
		Help: "1 if the pile currently has this status, else 0",
	}, []string{"pile_number", "status"})

	// ==================== Session Metrics ====================

	// RequestsAdmittedTotal counts requests admitted into the waiting area.
	RequestsAdmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_requests_admitted_total",
		Help: "Total charging requests admitted",
	}, []string{"mode"})

	// RequestsRejectedTotal counts requests rejected at the door, by reason.
	RequestsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_requests_rejected_total",
		Help: "Total charging requests rejected",
	}, []string{"reason"})

	// SessionsCompletedTotal counts sessions that finished charging.
	SessionsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_sessions_completed_total",
		Help: "Total completed charging sessions",
	}, []string{"pile_number", "mode"})

	// SessionsCancelledTotal counts requests cancelled before completion.
	SessionsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_sessions_cancelled_total",
		Help: "Total cancelled charging requests",
	}, []string{"stage"}) // waiting, queued, charging

	// EnergyDeliveredTotal tracks total energy delivered in kWh.
	EnergyDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_energy_delivered_kwh_total",
		Help: "Total energy delivered in kWh",
	}, []string{"pile_number"})

	// RevenueTotal tracks total fees billed, split electricity/service.
	RevenueTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_revenue_total",
		Help: "Total fees billed",
	}, []string{"component"}) // electricity, service

	// ChargeDuration tracks the simulated duration of completed sessions.
	ChargeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evse_charge_duration_seconds",
		Help:    "Simulated duration of charging sessions in seconds",
		Buckets: []float64{300, 900, 1800, 3600, 7200, 14400, 28800},
	})

	// ==================== Fault / Recovery Metrics ====================

	PileFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_pile_faults_total",
		Help: "Total pile fault reports",
	}, []string{"pile_number"})

	PileRepairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_pile_repairs_total",
		Help: "Total pile repairs",
	}, []string{"pile_number"})

	// ==================== Tick Engine Metrics ====================

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evse_tick_duration_seconds",
		Help:    "Wall-clock duration of a single tick cycle",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	TicksSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evse_ticks_skipped_total",
		Help: "Ticks skipped because the previous tick was still running",
	})

	// ==================== Infrastructure Metrics ====================

	PersistenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evse_persistence_latency_seconds",
		Help:    "Persistence collaborator call latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"operation"})

	PersistenceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_persistence_errors_total",
		Help: "Persistence collaborator calls that returned an error",
	}, []string{"operation"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_cache_hits_total",
		Help: "Total cache hits and misses for snapshot reads",
	}, []string{"result"}) // hit, miss

	MessageQueueMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evse_mq_messages_total",
		Help: "Total message queue messages",
	}, []string{"subject", "status"}) // status: published, failed

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evse_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
)

// RecordSessionCompleted updates the session-completion family of
// metrics from a finished charging session.
func RecordSessionCompleted(pileNumber string, mode string, energyKWh, electricityFee, serviceFee, durationSeconds float64) {
	SessionsCompletedTotal.WithLabelValues(pileNumber, mode).Inc()
	EnergyDeliveredTotal.WithLabelValues(pileNumber).Add(energyKWh)
	RevenueTotal.WithLabelValues("electricity").Add(electricityFee)
	RevenueTotal.WithLabelValues("service").Add(serviceFee)
	ChargeDuration.Observe(durationSeconds)
}

// RecordCacheAccess records a cache access metric.
func RecordCacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheHitsTotal.WithLabelValues(result).Inc()
}
