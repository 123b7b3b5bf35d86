package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "propulsores/dataset"

// Recorder receives load and cache observations. A nil Recorder is allowed
// everywhere one is accepted.
type Recorder interface {
	RecordSourceFetch(ctx context.Context, source string, duration time.Duration, rows int, err error)
	RecordLoad(ctx context.Context, duration time.Duration, rows int, err error)
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
}

// Loader fetches every source and merges them into one snapshot.
type Loader struct {
	sources  []Source
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
	now      func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) LoaderOption {
	return func(l *Loader) { l.recorder = r }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) { l.tracer = t }
}

// WithNow overrides the clock used to stamp snapshots.
func WithNow(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a loader over sources, merged in the given order.
func NewLoader(sources []Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		sources: sources,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("component", "dataset_loader"))
	return l
}

// Load fetches all sources concurrently and merges them. The first failure
// cancels the remaining fetches and fails the whole load.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.Int("dataset.sources", len(l.sources))))
	defer span.End()

	start := l.now()
	frames := make([]*Frame, len(l.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range l.sources {
		g.Go(func() error {
			frame, err := l.fetch(gctx, src)
			if err != nil {
				return err
			}
			frames[i] = frame
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.record(ctx, start, 0, err)
		l.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("error", err.Error()),
			slog.Int("sources", len(l.sources)))
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	table := Merge(frames...).WithLoadedAt(l.now())

	span.SetAttributes(
		attribute.Int("dataset.rows", table.Len()),
		attribute.Int("dataset.columns", len(table.columns)),
		attribute.String("dataset.fingerprint", table.Fingerprint()),
	)
	l.record(ctx, start, table.Len(), nil)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("sources", len(l.sources)),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.columns)),
		slog.Bool("date_filter_available", table.HasColumn(ColCreationDate)),
		slog.String("fingerprint", table.Fingerprint()),
		slog.Duration("duration", l.now().Sub(start)))

	return table, nil
}

func (l *Loader) fetch(ctx context.Context, src Source) (*Frame, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.fetch",
		trace.WithAttributes(attribute.String("dataset.source", src.Name())))
	defer span.End()

	start := l.now()
	frame, err := src.Fetch(ctx)
	rows := 0
	if frame != nil {
		rows = len(frame.Records)
	}
	if l.recorder != nil {
		l.recorder.RecordSourceFetch(ctx, src.Name(), l.now().Sub(start), rows, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.WarnContext(ctx, "source fetch failed",
			slog.String("source", src.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("dataset.rows", rows))
	l.logger.DebugContext(ctx, "source fetched",
		slog.String("source", src.Name()),
		slog.Int("rows", rows),
		slog.Int("columns", len(frame.Columns)))
	return frame, nil
}

func (l *Loader) record(ctx context.Context, start time.Time, rows int, err error) {
	if l.recorder != nil {
		l.recorder.RecordLoad(ctx, l.now().Sub(start), rows, err)
	}
}
