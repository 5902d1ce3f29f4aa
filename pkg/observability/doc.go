/*
Package observability turns engine lifecycle hooks into structured logs and
Prometheus metrics.

Both producers return domain.LifecycleHooks and can be combined with
LifecycleHooks.Merge before being passed to the engine.
*/
package observability
