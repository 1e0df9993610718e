/*
Package observability exports editor and HTTP activity as Prometheus metrics.

Metrics are kept in their own registry so several servers (or tests) can live in one
process. Hooks plugs the collector into an editor:

	m := observability.NewMetrics("slidedeck")
	ed, _ := slidedeck.New(patientID, slidedeck.WithLifecycleHooks(m.Hooks()))
	http.Handle("/metrics", m.Handler())
*/
package observability
