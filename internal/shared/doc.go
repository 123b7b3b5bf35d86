// Package shared holds helpers used by more than one package of the
// dashboard without belonging to any of them.
//
// The testutil subpackage captures slog output so tests can assert on what
// the loader, cache and HTTP layer logged:
//
//	logger, logs := testutil.NewTestLogger(t)
//	svc := services.NewDashboardService(cache, loader.Load, logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
package shared
