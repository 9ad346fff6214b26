package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ecometer_"

	resultSuccess = "success"
	resultError   = "error"
)

// Exported result labels.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

var (
	registerOnce sync.Once

	readingWrites  *prometheus.CounterVec
	readingRejects *prometheus.CounterVec

	calculationRuns    *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec

	configUpdates *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		readingWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_writes_total",
				Help: "Total reading inserts/updates/deletes by result",
			},
			[]string{"op", "result"},
		)
		readingRejects = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_rejects_total",
				Help: "Readings rejected by the sequence validator, by reason",
			},
			[]string{"reason"},
		)
		calculationRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculation_runs_total",
				Help: "Total calculation runs by result",
			},
			[]string{"result"},
		)
		calculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_latency_seconds",
				Help:    "Calculation run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		configUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "config_updates_total",
				Help: "Tariff config updates by result",
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_export_total",
				Help: "History exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "history_export_latency_seconds",
				Help:    "History export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			readingWrites,
			readingRejects,
			calculationRuns,
			calculationLatency,
			configUpdates,
			exportTotal,
			exportLatency,
		)

		registerDBMetrics(db, logger)
	})
}

// IncReadingWrite counts a reading mutation.
func IncReadingWrite(op, result string) {
	if readingWrites == nil {
		return
	}
	readingWrites.WithLabelValues(op, result).Inc()
}

// IncReadingReject counts a validator rejection.
func IncReadingReject(reason string) {
	if readingRejects == nil {
		return
	}
	readingRejects.WithLabelValues(reason).Inc()
}

// ObserveCalculationRun records a calculation run.
func ObserveCalculationRun(result string, duration time.Duration) {
	if calculationRuns == nil || calculationLatency == nil {
		return
	}
	calculationRuns.WithLabelValues(result).Inc()
	calculationLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// IncConfigUpdate counts a config update.
func IncConfigUpdate(result string) {
	if configUpdates == nil {
		return
	}
	configUpdates.WithLabelValues(result).Inc()
}

// ObserveHistoryExport records a history export.
func ObserveHistoryExport(format, result string, duration time.Duration) {
	if exportTotal == nil || exportLatency == nil {
		return
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
}
