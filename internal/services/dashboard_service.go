package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"propulsores/internal/config"
	"propulsores/internal/dataset"
	"propulsores/internal/infrastructure"
	"propulsores/pkg/contracts/domain"
)

// Summary titles as shown on the page.
const (
	TitleCompanySummary    = "Volume por Tipo de Empresa"
	TitleDivergenceSummary = "Ranking de Divergências"
)

var summaryTitles = map[string]string{
	dataset.SummaryCompany:    TitleCompanySummary,
	dataset.SummaryDivergence: TitleDivergenceSummary,
}

// DashboardService recomputes the dashboard from the cached snapshot on
// every call. It holds no per-request state.
type DashboardService struct {
	cache     *dataset.Cache
	load      dataset.LoadFunc
	metrics   *infrastructure.DashboardMetrics
	tracer    trace.Tracer
	highlight dataset.Highlighter
	logger    *slog.Logger
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

// WithMetrics reports exports and calendar errors to m.
func WithMetrics(m *infrastructure.DashboardMetrics) DashboardOption {
	return func(s *DashboardService) { s.metrics = m }
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) DashboardOption {
	return func(s *DashboardService) { s.tracer = t }
}

// WithHighlighter replaces the detail table highlighter.
func WithHighlighter(h dataset.Highlighter) DashboardOption {
	return func(s *DashboardService) { s.highlight = h }
}

// NewDashboardService creates the service. load fills cache on a miss.
func NewDashboardService(cache *dataset.Cache, load dataset.LoadFunc, logger *slog.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DashboardService{
		cache:     cache,
		load:      load,
		tracer:    otel.Tracer("propulsores/services"),
		highlight: dataset.HighlightNonPassing,
		logger:    infrastructure.WithComponent(logger, "dashboard_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// filtered is one request's view of the snapshot.
type filtered struct {
	snapshot *dataset.Table
	result   dataset.Result
	query    domain.FilterQuery
}

func (f *filtered) table() *dataset.Table { return f.result.Table }

func (f *filtered) view() domain.View {
	applied := domain.AppliedFilters{
		DateFilterActive:  f.result.DateFilterActive,
		IncludeEmptyDates: f.result.IncludeEmptyDates,
		Partners:          f.query.Partners,
		DocumentTypes:     f.query.DocumentTypes,
		Divergences:       f.query.Divergences,
	}
	if f.result.DateFilterActive {
		applied.Start = dataset.FormatDate(f.result.Start)
		applied.End = dataset.FormatDate(f.result.End)
	}

	warnings := f.result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return domain.View{
		Snapshot: snapshotInfo(f.snapshot),
		Applied:  applied,
		Rows:     f.result.Table.Len(),
		Warnings: warnings,
	}
}

func snapshotInfo(t *dataset.Table) domain.Snapshot {
	return domain.Snapshot{
		LoadedAt:    t.LoadedAt(),
		Fingerprint: t.Fingerprint(),
		TotalRows:   t.Len(),
		Columns:     t.Columns(),
	}
}

// Warm loads the snapshot into the cache.
func (s *DashboardService) Warm(ctx context.Context) error {
	t, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "dataset cache warmed",
		slog.Int("rows", t.Len()),
		slog.String("fingerprint", t.Fingerprint()),
	)
	return nil
}

// SnapshotStats reports the cached snapshot without loading it.
func (s *DashboardService) SnapshotStats() (rows int, loadedAt time.Time, ok bool) {
	t, _, ok := s.cache.Peek()
	if !ok {
		return 0, time.Time{}, false
	}
	return t.Len(), t.LoadedAt(), true
}

func (s *DashboardService) snapshot(ctx context.Context) (*dataset.Table, error) {
	t, err := s.cache.Get(ctx, s.load)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return t, nil
}

func (s *DashboardService) apply(ctx context.Context, q domain.FilterQuery) (*filtered, error) {
	t, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	res := dataset.Apply(t, toPredicates(q))
	if len(res.Warnings) > 0 {
		s.metrics.RecordCalendarError(ctx)
		for _, w := range res.Warnings {
			s.logger.WarnContext(ctx, "date filter skipped",
				slog.String("warning", w),
				slog.String("start", q.Start),
				slog.String("end", q.End),
			)
		}
	}

	infrastructure.SetSpanAttributes(ctx,
		attribute.Int("dashboard.rows.total", t.Len()),
		attribute.Int("dashboard.rows.filtered", res.Table.Len()),
		attribute.Bool("dashboard.date_filter", res.DateFilterActive),
	)
	return &filtered{snapshot: t, result: res, query: q}, nil
}

func (s *DashboardService) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "dashboard."+name)
}

func end(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	span.End()
}

func toPredicates(q domain.FilterQuery) dataset.Predicates {
	return dataset.Predicates{
		Start:             q.Start,
		End:               q.End,
		IncludeEmptyDates: q.IncludeEmpty,
		Partners:          q.Partners,
		DocumentTypes:     q.DocumentTypes,
		Divergences:       q.Divergences,
	}
}

// Dashboard computes the whole page for q.
func (s *DashboardService) Dashboard(ctx context.Context, q domain.FilterQuery) (_ *domain.Dashboard, err error) {
	ctx, span := s.start(ctx, "page")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}

	t := f.table()
	return &domain.Dashboard{
		View:    f.view(),
		Metrics: toMetrics(dataset.ComputeMetrics(t)),
		Summaries: []domain.Summary{
			toSummary(dataset.SummaryCompany, dataset.Summarize(t, dataset.ColAnalysisTime)),
			toSummary(dataset.SummaryDivergence, dataset.Summarize(t, dataset.ColDivergence)),
		},
		Charts: domain.Charts{
			TimeSeries:     toSeries(dataset.TimeSeries(t)),
			TopDivergences: toRanking(dataset.TopDivergences(t, dataset.DefaultTopN)),
			Distribution:   toSlices(dataset.Distribution(t, dataset.ColAnalysisTime)),
		},
		Filters: toOptions(dataset.BuildOptions(f.snapshot)),
	}, nil
}

// Filters lists the filter options of the full snapshot.
func (s *DashboardService) Filters(ctx context.Context) (_ *domain.FilterOptions, err error) {
	ctx, span := s.start(ctx, "filters")
	defer func() { end(ctx, span, err) }()

	t, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	opts := toOptions(dataset.BuildOptions(t))
	return &opts, nil
}

// Metrics computes the headline cards for q.
func (s *DashboardService) Metrics(ctx context.Context, q domain.FilterQuery) (_ *domain.MetricsResponse, err error) {
	ctx, span := s.start(ctx, "metrics")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.MetricsResponse{
		View:    f.view(),
		Metrics: toMetrics(dataset.ComputeMetrics(f.table())),
	}, nil
}

// Summary builds one of the standard summaries, keyed "company" or
// "divergence".
func (s *DashboardService) Summary(ctx context.Context, q domain.FilterQuery, key string) (_ *domain.SummaryResponse, err error) {
	column, ok := dataset.SummaryColumns[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSummary, key)
	}

	ctx, span := s.start(ctx, "summary")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.SummaryResponse{
		View:    f.view(),
		Summary: toSummary(key, dataset.Summarize(f.table(), column)),
	}, nil
}

// TimeSeries builds the daily stacked chart for q.
func (s *DashboardService) TimeSeries(ctx context.Context, q domain.FilterQuery) (_ *domain.TimeSeriesResponse, err error) {
	ctx, span := s.start(ctx, "timeseries")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.TimeSeriesResponse{
		View:   f.view(),
		Points: toSeries(dataset.TimeSeries(f.table())),
	}, nil
}

// TopDivergences ranks the limit most frequent divergence reasons.
func (s *DashboardService) TopDivergences(ctx context.Context, q domain.FilterQuery, limit int) (_ *domain.TopDivergencesResponse, err error) {
	if limit < 1 || limit > config.MaxTopDivergences {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidLimit, limit, config.MaxTopDivergences)
	}

	ctx, span := s.start(ctx, "top_divergences")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.TopDivergencesResponse{
		View:  f.view(),
		Limit: limit,
		Items: toRanking(dataset.TopDivergences(f.table(), limit)),
	}, nil
}

// Distribution builds the pie chart over the analysis-time tag.
func (s *DashboardService) Distribution(ctx context.Context, q domain.FilterQuery) (_ *domain.DistributionResponse, err error) {
	ctx, span := s.start(ctx, "distribution")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.DistributionResponse{
		View:   f.view(),
		Column: dataset.ColAnalysisTime,
		Slices: toSlices(dataset.Distribution(f.table(), dataset.ColAnalysisTime)),
	}, nil
}

// Records lists the filtered rows with their highlight flags. A failing
// highlighter yields an unstyled table and a warning log.
func (s *DashboardService) Records(ctx context.Context, q domain.FilterQuery) (_ *domain.RecordsResponse, err error) {
	ctx, span := s.start(ctx, "records")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return nil, err
	}

	detail := dataset.Detail(f.table(), s.highlight)
	if detail.Err != nil {
		s.logger.WarnContext(ctx, "detail highlighting failed, returning unstyled table",
			slog.String("error", detail.Err.Error()))
	}

	records := make([]domain.RecordRow, len(detail.Rows))
	for i, row := range detail.Rows {
		values := make([]string, 0, len(row.Values)+1)
		values = append(values, row.Values...)
		values = append(values, row.FilterDate)
		records[i] = domain.RecordRow{Values: values, Highlight: row.Highlight}
	}

	return &domain.RecordsResponse{
		View:    f.view(),
		Columns: detail.Columns,
		Records: records,
		Styled:  detail.Styled,
	}, nil
}

// Export writes the filtered rows to w and returns the row count.
func (s *DashboardService) Export(ctx context.Context, q domain.FilterQuery, format domain.ExportFormat, w io.Writer) (_ int, err error) {
	var write func(io.Writer, *dataset.Table) error
	switch format {
	case domain.ExportCSV:
		write = dataset.WriteCSV
	case domain.ExportXLSX:
		write = dataset.WriteXLSX
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	ctx, span := s.start(ctx, "export")
	defer func() { end(ctx, span, err) }()

	f, err := s.apply(ctx, q)
	if err != nil {
		return 0, err
	}

	t := f.table()
	if werr := write(w, t); werr != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrExportFailed, format, werr)
	}

	s.metrics.RecordExport(ctx, string(format), t.Len())
	s.logger.InfoContext(ctx, "export written",
		slog.String("format", string(format)),
		slog.Int("rows", t.Len()),
	)
	return t.Len(), nil
}

// ETag identifies the response for q on the current snapshot. extra holds
// route parameters that change the body, such as the ranking limit.
func (s *DashboardService) ETag(ctx context.Context, q domain.FilterQuery, extra ...string) (string, error) {
	t, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}

	d := xxhash.New()
	_, _ = d.WriteString(q.CanonicalKey())
	for _, e := range extra {
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(e)
	}
	return `"` + t.Fingerprint() + "-" + strconv.FormatUint(d.Sum64(), 16) + `"`, nil
}

func toMetrics(m dataset.Metrics) domain.Metrics {
	return domain.Metrics{
		Total:            m.Total,
		DivergenceCount:  m.DivergenceCount,
		AccuracyPct:      m.AccuracyPct,
		AccuracyDisplay:  m.AccuracyDisplay(),
		TamperedCount:    m.TamperedCount,
		TamperedSharePct: m.TamperedSharePct,
		TamperedHelp:     m.TamperedHelp(),
	}
}

func toSummary(key string, rows []dataset.SummaryRow) domain.Summary {
	out := domain.Summary{
		Key:    key,
		Title:  summaryTitles[key],
		Column: dataset.SummaryColumns[key],
		Rows:   make([]domain.SummaryRow, len(rows)),
	}
	for i, r := range rows {
		out.Rows[i] = domain.SummaryRow{
			Label:      r.Label,
			Count:      r.Count,
			Pct:        r.Pct,
			PctDisplay: r.PctDisplay(),
		}
	}
	return out
}

func toSeries(points []dataset.SeriesPoint) []domain.SeriesPoint {
	out := make([]domain.SeriesPoint, len(points))
	for i, p := range points {
		out[i] = domain.SeriesPoint{Date: dataset.FormatDate(p.Date), Label: p.Label, Count: p.Count}
	}
	return out
}

func toRanking(items []dataset.RankedDivergence) []domain.RankedDivergence {
	out := make([]domain.RankedDivergence, len(items))
	for i, it := range items {
		out[i] = domain.RankedDivergence{Reason: it.Reason, Count: it.Count, Percent: it.Percent}
	}
	return out
}

func toSlices(slices []dataset.Slice) []domain.Slice {
	out := make([]domain.Slice, len(slices))
	for i, sl := range slices {
		out[i] = domain.Slice{Label: sl.Label, Count: sl.Count}
	}
	return out
}

func toOptions(o dataset.Options) domain.FilterOptions {
	out := domain.FilterOptions{
		Partners:            o.Partners,
		DocumentTypes:       o.DocumentTypes,
		Divergences:         o.Divergences,
		DateFilterAvailable: o.DateFilterAvailable,
	}
	if o.DateFilterAvailable {
		out.MinDate = dataset.FormatDate(o.MinDate)
		out.MaxDate = dataset.FormatDate(o.MaxDate)
		out.DataUntil = out.MaxDate
	} else {
		out.Notice = config.MsgDateFilterUnavailable
	}
	return out
}
