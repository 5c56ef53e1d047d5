// Package metrics exposes Prometheus collectors for the view change queue.
//
// A nil *Metrics is valid and records nothing, so the scroller core can run
// without a registry.
package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "scroller"
	subsystem = "viewchange"
)

// Metrics holds the collectors of one scroller.
type Metrics struct {
	registry *prometheus.Registry

	submitted      *prometheus.CounterVec
	completed      *prometheus.CounterVec
	coalesced      prometheus.Counter
	engineRequests *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	queueDepth     prometheus.Gauge
	workarounds    prometheus.Counter
}

// New creates collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		submitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submitted_total",
				Help:      "View changes submitted by kind and trigger",
			},
			[]string{"kind", "trigger"},
		),
		completed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "completed_total",
				Help:      "View changes completed by family and result",
			},
			[]string{"family", "result"},
		),
		coalesced: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "coalesced_total",
				Help:      "Requests merged into an in-flight view change",
			},
		),
		engineRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "engine_requests_total",
				Help:      "Requests issued to the interaction engine by method",
			},
			[]string{"method"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "engine_notifications_total",
				Help:      "Notifications received from the interaction engine by type",
			},
			[]string{"type"},
		),
		queueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "queue_depth",
				Help:      "Operations waiting for completion",
			},
		),
		workarounds: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "interruption_workarounds_total",
				Help:      "Zero-delta requests issued to settle an in-flight animation",
			},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Submitted counts a new view change.
func (m *Metrics) Submitted(kind, trigger string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(kind, trigger).Inc()
}

// Completed counts a completion.
func (m *Metrics) Completed(zoom bool, result string) {
	if m == nil {
		return
	}
	family := "scroll"
	if zoom {
		family = "zoom"
	}
	m.completed.WithLabelValues(family, result).Inc()
}

// Coalesced counts a merged request.
func (m *Metrics) Coalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

// EngineRequest counts an engine call.
func (m *Metrics) EngineRequest(method string) {
	if m == nil {
		return
	}
	m.engineRequests.WithLabelValues(method).Inc()
}

// Notification counts an engine notification.
func (m *Metrics) Notification(name string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(name).Inc()
}

// QueueDepth records the number of queued operations.
func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Workaround counts an interruption workaround.
func (m *Metrics) Workaround() {
	if m == nil {
		return
	}
	m.workarounds.Inc()
}

// WriteSummary prints every non-zero sample as "name{labels} value" lines,
// sorted by name.
func (m *Metrics) WriteSummary(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var v float64
			switch {
			case metric.GetCounter() != nil:
				v = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				v = metric.GetGauge().GetValue()
			default:
				continue
			}
			if v == 0 {
				continue
			}
			labels := ""
			for i, lp := range metric.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, v))
		}
	}
	sort.Strings(lines)

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
