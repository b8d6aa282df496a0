package sieve

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional set of Prometheus counters an Interpreter
// reports to, if one is attached via WithMetrics. Nothing in this
// package registers Metrics with a default registry; callers own that.
type Metrics struct {
	Compiles     prometheus.Counter
	CompileFails prometheus.Counter
	Evaluations  prometheus.Counter
	RunErrors    prometheus.Counter
}

// NewMetrics builds a Metrics set registered under the given
// Prometheus namespace (e.g. "sieve").
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Compiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "compiles_total", Help: "Scripts successfully compiled to bytecode.",
		}),
		CompileFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "compile_failures_total", Help: "Scripts that failed to parse or compile.",
		}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evaluations_total", Help: "Bytecode evaluations run.",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "run_errors_total", Help: "Evaluations that ended in a RunError.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Compiles, m.CompileFails, m.Evaluations, m.RunErrors)
	}
	return m
}
