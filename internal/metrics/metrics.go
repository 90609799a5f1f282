package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the service's collectors. A nil *Registry records nothing,
// so callers never need to check for it.
type Registry struct {
	registry *prometheus.Registry

	workflowRuns       *prometheus.CounterVec
	workflowDuration   *prometheus.HistogramVec
	idempotentSkips    *prometheus.CounterVec
	fulfillmentOrders  *prometheus.CounterVec
	upscaleFallbacks   prometheus.Counter
	reviewDecisions    *prometheus.CounterVec
	retryAttempts      *prometheus.CounterVec
	staleOrdersCleaned prometheus.Counter
	reviewsEscalated   prometheus.Counter
	queueTasks         *prometheus.CounterVec
	webhooksReceived   *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		workflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_workflow_runs_total",
			Help: "Order workflow invocations by entry point and outcome.",
		}, []string{"entry", "outcome"}),
		workflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pawpop_workflow_duration_seconds",
			Help:    "Order workflow duration by entry point.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"entry"}),
		idempotentSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_idempotent_skips_total",
			Help: "Workflow steps skipped because they already happened.",
		}, []string{"step"}),
		fulfillmentOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_fulfillment_orders_total",
			Help: "Fulfillment submissions by product type and result.",
		}, []string{"product_type", "result"}),
		upscaleFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawpop_upscale_fallbacks_total",
			Help: "Orders that continued with the original image after an upscale failure.",
		}),
		reviewDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_review_decisions_total",
			Help: "Admin review decisions.",
		}, []string{"decision"}),
		retryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_retry_attempts_total",
			Help: "Retry sweep attempts by result.",
		}, []string{"result"}),
		staleOrdersCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawpop_stale_orders_cancelled_total",
			Help: "Abandoned pending orders cancelled.",
		}),
		reviewsEscalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pawpop_reviews_escalated_total",
			Help: "Admin reviews escalated to support.",
		}),
		queueTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_queue_tasks_total",
			Help: "Queue tasks by type and result.",
		}, []string{"type", "result"}),
		webhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pawpop_webhooks_received_total",
			Help: "Inbound webhooks by source and result.",
		}, []string{"source", "result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.workflowRuns,
		r.workflowDuration,
		r.idempotentSkips,
		r.fulfillmentOrders,
		r.upscaleFallbacks,
		r.reviewDecisions,
		r.retryAttempts,
		r.staleOrdersCleaned,
		r.reviewsEscalated,
		r.queueTasks,
		r.webhooksReceived,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *Registry) WorkflowFinished(entry, outcome string, started time.Time) {
	if r == nil {
		return
	}
	r.workflowRuns.WithLabelValues(entry, outcome).Inc()
	r.workflowDuration.WithLabelValues(entry).Observe(time.Since(started).Seconds())
}

func (r *Registry) IdempotentSkip(step string) {
	if r == nil {
		return
	}
	r.idempotentSkips.WithLabelValues(step).Inc()
}

func (r *Registry) FulfillmentSubmitted(productType, result string) {
	if r == nil {
		return
	}
	r.fulfillmentOrders.WithLabelValues(productType, result).Inc()
}

func (r *Registry) UpscaleFallback() {
	if r == nil {
		return
	}
	r.upscaleFallbacks.Inc()
}

func (r *Registry) ReviewDecided(decision string) {
	if r == nil {
		return
	}
	r.reviewDecisions.WithLabelValues(decision).Inc()
}

func (r *Registry) RetryAttempted(result string) {
	if r == nil {
		return
	}
	r.retryAttempts.WithLabelValues(result).Inc()
}

func (r *Registry) StaleOrdersCancelled(n int) {
	if r == nil {
		return
	}
	r.staleOrdersCleaned.Add(float64(n))
}

func (r *Registry) ReviewsEscalated(n int) {
	if r == nil {
		return
	}
	r.reviewsEscalated.Add(float64(n))
}

func (r *Registry) QueueTask(taskType, result string) {
	if r == nil {
		return
	}
	r.queueTasks.WithLabelValues(taskType, result).Inc()
}

func (r *Registry) WebhookReceived(source, result string) {
	if r == nil {
		return
	}
	r.webhooksReceived.WithLabelValues(source, result).Inc()
}
