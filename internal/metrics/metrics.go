package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch item outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ScanCount       prometheus.Counter
	Classifications prometheus.Counter
	RecruiterHits   prometheus.Counter
	SkillMentions   prometheus.Counter
	Drafts          *prometheus.CounterVec
	BatchItems      *prometheus.CounterVec
	LLMLatency      *prometheus.HistogramVec
	DraftDuration   prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScanCount: factory.NewCounter(prometheus.CounterOpts{
			Name: "resumably_scan_count",
			Help: "Total number of scheduled mailbox scans",
		}),
		Classifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "resumably_classifications_total",
			Help: "Total number of emails classified",
		}),
		RecruiterHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "resumably_recruiter_hits_total",
			Help: "Total number of emails classified as recruiter outreach",
		}),
		SkillMentions: factory.NewCounter(prometheus.CounterOpts{
			Name: "resumably_skill_mentions_total",
			Help: "Total number of skill mentions recorded in the ledger",
		}),
		Drafts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resumably_drafts_total",
			Help: "Draft lifecycle events by action",
		}, []string{"action"}),
		BatchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "resumably_batch_items_total",
			Help: "Batch classification items by outcome",
		}, []string{"outcome"}),
		LLMLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "resumably_llm_call_duration_seconds",
			Help:    "Latency of reasoning engine calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"model", "status"}),
		DraftDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "resumably_draft_duration_seconds",
			Help:    "Time spent assembling a reply draft",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveLLMCall records one reasoning engine call
func (m *Metrics) ObserveLLMCall(model string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMLatency.WithLabelValues(model, status).Observe(elapsed.Seconds())
}

// ObserveClassification counts a classification and whether it was a recruiter hit
func (m *Metrics) ObserveClassification(recruiter bool) {
	m.Classifications.Inc()
	if recruiter {
		m.RecruiterHits.Inc()
	}
}
