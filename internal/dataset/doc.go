// Package dataset loads the partner spreadsheets and turns them into the
// numbers shown on the dashboard. It covers the whole pipeline from the two
// CSV downloads to filtered views, metrics, summaries and chart series.
//
// # Pipeline
//
//  1. Source/Loader: fetch both spreadsheets concurrently, fail as a whole
//  2. Merge: align columns by name, keep every row, trim headers
//  3. Cache: keep one snapshot for a fixed TTL
//  4. Apply: date range, partner, document type and divergence filters
//  5. ComputeMetrics, Summarize, TimeSeries, TopDivergences, Distribution
//  6. Detail, WriteCSV, WriteXLSX
//
// # Usage
//
//	sources, err := dataset.NewSources(ctx, cfg.Sources, cfg.Fetch)
//	if err != nil {
//	    return err
//	}
//	loader := dataset.NewLoader(sources, dataset.WithLogger(logger))
//	cache := dataset.NewCache(cfg.Cache.TTL)
//
//	table, err := cache.Get(ctx, loader.Load)
//	if err != nil {
//	    return err // *errors.AppError of type NETWORK or PARSING
//	}
//	view := dataset.Apply(table, dataset.Predicates{Partners: []string{"123"}})
//	metrics := dataset.ComputeMetrics(view.Table)
//
// # Nulls
//
// A Table keeps raw cell text. A cell is null when its text is one of the
// usual missing-value markers ("", "NA", "nan", "None", ...); see IsNull.
// Placeholder values such as "Não informado" are not null but are left out
// of divergence options, summaries and rankings; see PlaceholderTokens.
package dataset
