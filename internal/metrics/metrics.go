package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts finished scans by status.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scapagent_scans_total",
			Help: "Total number of scans performed, by result status",
		},
		[]string{"status"},
	)

	// ScanDuration tracks end-to-end scan duration.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scapagent_scan_duration_seconds",
			Help:    "Scan duration in seconds, by result status",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
		[]string{"status"},
	)

	// ComplianceScore is the score of the most recent real scan per profile.
	ComplianceScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scapagent_compliance_score",
			Help: "Compliance score of the most recent completed scan",
		},
		[]string{"profile"},
	)

	// ContentFetchTotal counts benchmark archive downloads.
	ContentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scapagent_content_fetch_total",
			Help: "Total number of content archive fetches",
		},
		[]string{"status"},
	)

	// ReportsTotal counts collector submissions.
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scapagent_reports_total",
			Help: "Total number of results submitted to the collector",
		},
		[]string{"status"},
	)

	// SpoolDepth tracks results waiting in the outbox.
	SpoolDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scapagent_spool_depth",
			Help: "Number of undelivered results in the outbox",
		},
	)
)
