/*
Package metrics defines and registers the Prometheus gauges, counters, and
histograms the cluster exposes on /metrics: node/partition counts, Raft
leadership and log position, AP-store partition status and pending-sync
depth, replication quorum failures and latency, query-plane latency and
fan-out size, overlay density, and per-method RPC counters.

Metrics are package-level vars registered with the default registry at
init; Collector (collector.go) samples
the node's live components onto the gauges on a ticker rather than wiring
an update call into every mutation site.

# Usage

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.ReplicationLatency)

	http.Handle("/metrics", metrics.Handler())

health.go additionally keeps its own registry of component health (it does
not use internal/health) and serves it as JSON through the /health, /ready
and /live HTTP handlers that cmd/searchd mounts. The client-facing Health
RPC does not read this registry.
*/
package metrics
