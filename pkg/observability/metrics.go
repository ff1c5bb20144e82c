package observability

import (
	"github.com/aretw0/weave/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors describing a workspace.
type Metrics struct {
	Actions       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	Operators     prometheus.Gauge
	Links         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_actions_total",
			Help: "Total number of dispatched actions handled by the synchronizer",
		}, []string{"action"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_notifications_total",
			Help: "Total number of domain notifications published",
		}, []string{"type"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_rejections_total",
			Help: "Total number of diagram changes rejected and rolled back",
		}, []string{"origin"}),
		Operators: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weave_operators",
			Help: "Number of operators in the logical graph",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weave_links",
			Help: "Number of links in the logical graph",
		}),
	}
	reg.MustRegister(m.Actions, m.Notifications, m.Rejections, m.Operators, m.Links)
	return m
}

// Hooks returns synchronizer hooks feeding the collectors.
func (m *Metrics) Hooks() domain.SyncHooks {
	return domain.SyncHooks{
		OnAction: func(t domain.ActionType) {
			m.Actions.WithLabelValues(string(t)).Inc()
		},
		OnNotification: m.observe,
		OnRejected: func(origin string, _ error) {
			m.Rejections.WithLabelValues(origin).Inc()
		},
	}
}

func (m *Metrics) observe(n domain.Notification) {
	m.Notifications.WithLabelValues(string(n.Type)).Inc()
	switch n.Type {
	case domain.EventOperatorAdded:
		m.Operators.Inc()
	case domain.EventOperatorDeleted:
		m.Operators.Dec()
	case domain.EventLinkAdded:
		m.Links.Inc()
	case domain.EventLinkDeleted, domain.EventLinkReplaced:
		// A replacement is always followed by the addition of its current link.
		m.Links.Dec()
	}
}
