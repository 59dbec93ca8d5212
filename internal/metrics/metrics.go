// Package metrics provides Prometheus instrumentation for risk assessments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment pipeline.
type Metrics struct {
	// Assessments by final category and selected cohort
	AssessmentOutcome *prometheus.CounterVec

	// Failed assessments by error kind
	AssessmentErrors *prometheus.CounterVec

	// Distribution of final adjusted risk percentages
	AdjustedRisk prometheus.Histogram

	// Full pipeline latency including persistence
	CalculateLatency prometheus.Histogram

	// Report renders by format
	ReportRenders *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. A nil reg registers on
// the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AssessmentOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascvd_assessments_total",
			Help: "Total completed risk assessments by category and cohort",
		}, []string{"category", "cohort"}),

		AssessmentErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascvd_assessment_errors_total",
			Help: "Total failed risk assessments by error kind",
		}, []string{"kind"}), // kind: "validation", "domain", "storage"

		AdjustedRisk: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascvd_adjusted_risk_percent",
			Help:    "Distribution of final adjusted 10-year ASCVD risk percentages",
			Buckets: []float64{2.5, 5, 7.5, 10, 15, 20, 25, 30},
		}),

		CalculateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascvd_calculate_duration_seconds",
			Help:    "Duration of full assessment including persistence",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),

		ReportRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascvd_report_renders_total",
			Help: "Total rendered reports by format and cache result",
		}, []string{"format", "cache"}),
	}
}

// IncrementOutcome records a completed assessment.
func (m *Metrics) IncrementOutcome(category, cohort string, adjustedRisk float64) {
	if m != nil {
		m.AssessmentOutcome.WithLabelValues(category, cohort).Inc()
		m.AdjustedRisk.Observe(adjustedRisk)
	}
}

// IncrementError records a failed assessment.
func (m *Metrics) IncrementError(kind string) {
	if m != nil {
		m.AssessmentErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveCalculateLatency records the total assessment duration.
func (m *Metrics) ObserveCalculateLatency(d time.Duration) {
	if m != nil {
		m.CalculateLatency.Observe(d.Seconds())
	}
}

// IncrementReportRender records a report render; cache is "hit" or "miss".
func (m *Metrics) IncrementReportRender(format, cache string) {
	if m != nil {
		m.ReportRenders.WithLabelValues(format, cache).Inc()
	}
}
