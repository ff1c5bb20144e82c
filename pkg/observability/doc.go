/*
Package observability turns synchronizer hooks into logs and Prometheus metrics.

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	ws := weave.New(weave.WithHooks(observability.Combine(
		metrics.Hooks(),
		observability.LogHooks(logger),
	)))
*/
package observability
