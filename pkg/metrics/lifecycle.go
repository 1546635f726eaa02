package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transition outcomes.
const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// LifecycleMetrics counts pre-order and payment state transitions.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	payments    *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	m := &LifecycleMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preorder_transitions_total",
			Help:      "Pre-order lifecycle actions by outcome.",
		}, []string{"action", "result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_confirmations_total",
			Help:      "Gateway payment confirmations by target kind and outcome.",
		}, []string{"target", "result"}),
	}
	reg.MustRegister(m.transitions, m.payments)
	return m
}

func (l *LifecycleMetrics) Transition(action, result string) {
	if l == nil || l.transitions == nil {
		return
	}
	l.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(result)).Inc()
}

func (l *LifecycleMetrics) PaymentConfirmation(target, result string) {
	if l == nil || l.payments == nil {
		return
	}
	l.payments.WithLabelValues(normalizeLabel(target), normalizeLabel(result)).Inc()
}
