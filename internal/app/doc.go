// Package app wires the partner efficiency dashboard together and manages
// its lifecycle.
//
// # Initialization Flow
//
// NewApplication builds every component from a loaded config.Config:
//
//	1. OpenTelemetry providers and the Prometheus registry
//	2. Dashboard metrics, shared by the loader, the cache and the HTTP layer
//	3. Spreadsheet sources, the loader and the snapshot cache
//	4. DashboardService and HealthService
//	5. The chi router with its middleware chain and handlers
//	6. The HTTP server
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	application, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Tests replace the spreadsheet sources with WithSources.
//
// # Startup and Shutdown
//
// Start serves immediately and loads the first snapshot in the background;
// /api/health/ready answers 503 until that load succeeds. Run stops on
// SIGINT or SIGTERM, drains in-flight requests within the shutdown timeout
// and flushes telemetry.
//
// All errors are returned to the caller; the package never calls os.Exit.
package app
