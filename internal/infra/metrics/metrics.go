// Package metrics exposes reminder sweep and delivery outcomes to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"sow_tracker/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sow_tracker"

// Collectors implements app.SweepRecorder and app.DeliveryRecorder.
type Collectors struct {
	registry *prometheus.Registry

	scheduled     *prometheus.CounterVec
	sweepFailures *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
	deliveries    *prometheus.CounterVec
}

// New registers the reminder collectors, plus the Go and process collectors,
// on a private registry.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Reminders inserted by sweeps, by notification type.",
		}, []string{"type"}),
		sweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_failures_total",
			Help:      "Items or categories that failed during a sweep, by notification type.",
		}, []string{"type"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time spent sweeping one notification category.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_deliveries_total",
			Help:      "Reminder delivery attempts, by notification type and outcome.",
		}, []string{"type", "outcome"}),
	}
	c.registry.MustRegister(
		c.scheduled, c.sweepFailures, c.sweepDuration, c.deliveries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collectors) ObserveSweep(t notification.Type, scheduled, failures int, elapsed time.Duration) {
	c.scheduled.WithLabelValues(string(t)).Add(float64(scheduled))
	c.sweepFailures.WithLabelValues(string(t)).Add(float64(failures))
	c.sweepDuration.WithLabelValues(string(t)).Observe(elapsed.Seconds())
}

func (c *Collectors) ObserveDelivery(t notification.Type, ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	c.deliveries.WithLabelValues(string(t), outcome).Inc()
}

// Registry returns the registry the collectors are registered on.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
