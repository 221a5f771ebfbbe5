package metrics

import (
	"time"

	"hyperlane-registration/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collectors for one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ============================================
	// 账户结果指标
	// ============================================
	AccountsTotal    prometheus.Gauge
	AccountOutcomes  *prometheus.CounterVec
	AttemptFailures  *prometheus.CounterVec
	ActiveWorkers    prometheus.Gauge
	WorkflowDuration prometheus.Histogram

	// ============================================
	// Claim API 请求指标
	// ============================================
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "claim_accounts_total",
			Help: "Number of accounts loaded for the current run",
		}),

		AccountOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claim_account_outcomes_total",
				Help: "Terminal outcomes per account (exhausted = retry budget used up)",
			},
			[]string{"outcome"},
		),

		AttemptFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claim_attempt_failures_total",
				Help: "Failed workflow attempts by error class",
			},
			[]string{"error_type"},
		),

		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "claim_active_workers",
			Help: "Account workflows currently holding an admission slot",
		}),

		WorkflowDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "claim_workflow_duration_seconds",
			Help:    "Wall time of one account workflow including retries",
			Buckets: prometheus.DefBuckets,
		}),

		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claim_api_requests_total",
				Help: "Claim service requests by operation and status code",
			},
			[]string{"op", "code"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "claim_api_request_duration_seconds",
				Help:    "Claim service request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.AccountsTotal.Set(float64(n))
}

// ObserveOutcome counts a finished account. Exhausted workers get their own label.
func (m *Metrics) ObserveOutcome(result models.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := result.Outcome.String()
	if result.Exhausted() {
		label = "exhausted"
	}
	m.AccountOutcomes.WithLabelValues(label).Inc()
	if elapsed > 0 {
		m.WorkflowDuration.Observe(elapsed.Seconds())
	}
}

// ObserveAttemptFailure counts one failed attempt
func (m *Metrics) ObserveAttemptFailure(errorType string) {
	if m == nil {
		return
	}
	m.AttemptFailures.WithLabelValues(errorType).Inc()
}

func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

func (m *Metrics) WorkerFinished() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}

// ObserveRequest records one claim service round trip. code is "error" on transport failure.
func (m *Metrics) ObserveRequest(op, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(op, code).Inc()
	m.APIRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}
