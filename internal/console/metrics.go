package console

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts mutation outcomes for the operator console.
type Metrics struct {
	MutationsAccepted *prometheus.CounterVec
	MutationsRejected *prometheus.CounterVec
}

// NewMetrics creates and registers the console metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MutationsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmaint",
			Name:      "mutations_accepted_total",
			Help:      "Mutations committed through the maintenance console.",
		}, []string{"collection"}),
		MutationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docmaint",
			Name:      "mutations_rejected_total",
			Help:      "Mutations rejected by the governance pipeline, by stage.",
		}, []string{"collection", "stage"}),
	}
	reg.MustRegister(m.MutationsAccepted, m.MutationsRejected)
	return m
}
