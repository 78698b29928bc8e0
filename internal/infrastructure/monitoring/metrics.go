package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	EligibilityDecisions *prometheus.CounterVec
	LoansCreated         prometheus.Counter
	CustomersRegistered  prometheus.Counter
	IngestionRows        *prometheus.CounterVec
	IngestionDuration    *prometheus.HistogramVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		EligibilityDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_eligibility_decisions_total",
				Help: "Eligibility decisions by call site, outcome and score tier.",
			},
			[]string{"call_site", "outcome", "tier"},
		),
		LoansCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_loans_created_total",
				Help: "Total number of approved loans appended by loan creation.",
			},
		),
		CustomersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_customers_registered_total",
				Help: "Total number of customers registered through the API.",
			},
		),
		IngestionRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_ingestion_rows_total",
				Help: "Spreadsheet rows handled by ingestion, by record kind and status.",
			},
			[]string{"kind", "status"},
		),
		IngestionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_ingestion_run_duration_seconds",
				Help:    "Duration of ingestion runs.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"status"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordEligibilityDecision(callSite string, approved bool, tier string) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	Business.EligibilityDecisions.WithLabelValues(callSite, outcome, tier).Inc()
}

func RecordLoanCreated() {
	Business.LoansCreated.Inc()
}

func RecordCustomerRegistered() {
	Business.CustomersRegistered.Inc()
}

func RecordIngestionRow(kind, status string) {
	Business.IngestionRows.WithLabelValues(kind, status).Inc()
}

func RecordIngestionRun(status string, duration time.Duration) {
	Business.IngestionDuration.WithLabelValues(status).Observe(duration.Seconds())
}
