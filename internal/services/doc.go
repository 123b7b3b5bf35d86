// Package services sits between the HTTP handlers and the dataset package.
//
// DashboardService turns a filter selection into the page sections and API
// payloads. Every call reads the cached snapshot, applies the filters and
// recomputes the aggregates; nothing per request is stored. A failed load
// surfaces as the loader's error, so handlers can map network and parsing
// failures to the source-unavailable problem.
//
// HealthService reports liveness, readiness and version. Readiness depends
// on a snapshot being cached:
//
//	hs := services.NewHealthService(contracts.Version, dash.SnapshotStats, ttl, system, logger)
//	status := hs.ReadinessCheck(ctx)
package services
