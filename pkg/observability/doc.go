/*
Package observability turns orchestrator lifecycle hooks into Prometheus
metrics and structured log records.

Both producers return domain.LifecycleHooks, so they compose with Merge and
plug into genui.WithLifecycleHooks:

	metrics := observability.NewMetrics()
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	client, _ := genui.New(genui.WithModel(model), genui.WithLifecycleHooks(hooks))
	http.Handle("/metrics", metrics.Handler())
*/
package observability
