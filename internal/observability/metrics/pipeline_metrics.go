package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	JobResultCompleted = "completed"
	JobResultRetried   = "retried"
	JobResultFailed    = "failed"

	WebhookResultApplied   = "applied"
	WebhookResultDuplicate = "duplicate"
	WebhookResultRejected  = "rejected"
	WebhookResultIgnored   = "ignored"
)

// Config carries const labels for the pipeline metrics registry.
type Config struct {
	ServiceName string
	Environment string
}

// PipelineMetrics captures job pipeline health signals: worker throughput,
// retries, terminal failures, poller activity and webhook outcomes.
type PipelineMetrics struct {
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobRetries       *prometheus.CounterVec
	terminalFailures *prometheus.CounterVec
	pollerTicks      prometheus.Counter
	pollerDue        prometheus.Counter
	pollerErrors     prometheus.Counter
	webhookEvents    *prometheus.CounterVec
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

// Pipeline returns the singleton pipeline metrics registry.
func Pipeline() *PipelineMetrics {
	return PipelineWithConfig(Config{})
}

// PipelineWithConfig returns the singleton pipeline metrics registry using config labels.
func PipelineWithConfig(cfg Config) *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pipelineMetrics
}

// ResetPipelineMetricsForTest resets the pipeline metrics singleton for tests.
func ResetPipelineMetricsForTest() {
	pipelineMetricsOnce = sync.Once{}
	pipelineMetrics = nil
}

func newPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "scriptly"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriptly_worker_job_runs_total",
		Help:        "Worker job executions by kind and result.",
		ConstLabels: constLabels,
	}, []string{"kind", "result"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "scriptly_worker_job_duration_seconds",
		Help:        "Worker job latency by kind.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		ConstLabels: constLabels,
	}, []string{"kind"})
	jobRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriptly_worker_job_retries_total",
		Help:        "Transient job failures that were requeued with backoff.",
		ConstLabels: constLabels,
	}, []string{"kind"})
	terminalFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriptly_worker_job_terminal_failures_total",
		Help:        "Jobs that exhausted retries or failed permanently. Never silently dropped.",
		ConstLabels: constLabels,
	}, []string{"kind", "reason"})
	pollerTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "scriptly_publish_poller_ticks_total",
		Help:        "Publication poller tick count.",
		ConstLabels: constLabels,
	})
	pollerDue := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "scriptly_publish_poller_due_total",
		Help:        "Due scheduled publications promoted to publish jobs.",
		ConstLabels: constLabels,
	})
	pollerErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "scriptly_publish_poller_errors_total",
		Help:        "Publication poller tick errors.",
		ConstLabels: constLabels,
	})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "scriptly_billing_webhook_events_total",
		Help:        "Billing webhook events by type and outcome.",
		ConstLabels: constLabels,
	}, []string{"type", "result"})

	for _, collector := range []prometheus.Collector{
		jobRuns, jobDuration, jobRetries, terminalFailures,
		pollerTicks, pollerDue, pollerErrors, webhookEvents,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &PipelineMetrics{
		jobRuns:          jobRuns,
		jobDuration:      jobDuration,
		jobRetries:       jobRetries,
		terminalFailures: terminalFailures,
		pollerTicks:      pollerTicks,
		pollerDue:        pollerDue,
		pollerErrors:     pollerErrors,
		webhookEvents:    webhookEvents,
	}
}

func (m *PipelineMetrics) IncJobRun(kind, result string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(kind, result).Inc()
}

func (m *PipelineMetrics) ObserveJobDuration(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *PipelineMetrics) IncJobRetry(kind string) {
	if m == nil {
		return
	}
	m.jobRetries.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) IncTerminalFailure(kind, reason string) {
	if m == nil {
		return
	}
	m.terminalFailures.WithLabelValues(kind, reason).Inc()
}

func (m *PipelineMetrics) IncPollerTick() {
	if m == nil {
		return
	}
	m.pollerTicks.Inc()
}

func (m *PipelineMetrics) AddPollerDue(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pollerDue.Add(float64(n))
}

func (m *PipelineMetrics) IncPollerError() {
	if m == nil {
		return
	}
	m.pollerErrors.Inc()
}

func (m *PipelineMetrics) IncWebhookEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}
