// Package metrics holds the domain counters of the document service.
// A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the sharing and cleanup counters.
type Metrics struct {
	documentsShared     prometheus.Counter
	shareNotifications  *prometheus.CounterVec
	orphanObjectDeletes *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		documentsShared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "documents_shared_total",
			Help: "Total number of successful share operations.",
		}),
		shareNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "share_notifications_total",
			Help: "Share notifications by outcome.",
		}, []string{"result"}),
		orphanObjectDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orphan_object_deletes_total",
			Help: "Object deletions performed while deleting a document, by outcome.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.documentsShared, m.shareNotifications, m.orphanObjectDeletes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) DocumentShared() {
	if m == nil {
		return
	}
	m.documentsShared.Inc()
}

// ShareNotification records one notification attempt; ok=false counts a failure.
func (m *Metrics) ShareNotification(ok bool) {
	if m == nil {
		return
	}
	m.shareNotifications.WithLabelValues(result(ok)).Inc()
}

// ObjectDelete records the outcome of deleting a document's bytes.
func (m *Metrics) ObjectDelete(ok bool) {
	if m == nil {
		return
	}
	m.orphanObjectDeletes.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
