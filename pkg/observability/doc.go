/*
Package observability turns dialogue lifecycle events into Prometheus
metrics and structured log records.

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
	a := agent.New(dm, agent.WithHooks(hooks))
*/
package observability
