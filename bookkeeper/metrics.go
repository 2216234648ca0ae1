package bookkeeper

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts bookkeeping events. A nil *Metrics records nothing.
type Metrics struct {
	classDefs       prometheus.Counter
	pbcs            prometheus.Counter
	accessMerges    prometheus.Counter
	reflows         prometheus.Counter
	specializations *prometheus.CounterVec
	calls           *prometheus.CounterVec
	warnings        prometheus.Counter
}

// NewMetrics creates the bookkeeper counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		classDefs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classdefs_total",
			Help:      "Total number of ClassDefs created",
		}),
		pbcs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prebuilt_constants_total",
			Help:      "Total number of prebuilt constants entered in the constant cache",
		}),
		accessMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_set_merges_total",
			Help:      "Total number of attribute reads that changed an access set",
		}),
		reflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reflows_total",
			Help:      "Total number of positions queued for re-analysis",
		}),
		specializations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "specializations_total",
			Help:      "Total number of specialized clones created",
		}, []string{"target"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of calls resolved, by specialization policy",
		}, []string{"policy"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Total number of diagnostic warnings",
		}),
	}
	collectors := []prometheus.Collector{
		m.classDefs, m.pbcs, m.accessMerges, m.reflows, m.specializations, m.calls, m.warnings,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register bookkeeper metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) classDefCreated() {
	if m != nil {
		m.classDefs.Inc()
	}
}

func (m *Metrics) pbcCreated() {
	if m != nil {
		m.pbcs.Inc()
	}
}

func (m *Metrics) accessSetMerged() {
	if m != nil {
		m.accessMerges.Inc()
	}
}

func (m *Metrics) reflowQueued() {
	if m != nil {
		m.reflows.Inc()
	}
}

func (m *Metrics) specialized(target string) {
	if m != nil {
		m.specializations.WithLabelValues(target).Inc()
	}
}

func (m *Metrics) called(policy string) {
	if m != nil {
		m.calls.WithLabelValues(policy).Inc()
	}
}

func (m *Metrics) warned() {
	if m != nil {
		m.warnings.Inc()
	}
}
