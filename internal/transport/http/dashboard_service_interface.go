package http

import (
	"context"
	"io"

	"propulsores/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, q domain.FilterQuery) (*domain.Dashboard, error)
	Filters(ctx context.Context) (*domain.FilterOptions, error)
	Metrics(ctx context.Context, q domain.FilterQuery) (*domain.MetricsResponse, error)
	Summary(ctx context.Context, q domain.FilterQuery, key string) (*domain.SummaryResponse, error)
	TimeSeries(ctx context.Context, q domain.FilterQuery) (*domain.TimeSeriesResponse, error)
	TopDivergences(ctx context.Context, q domain.FilterQuery, limit int) (*domain.TopDivergencesResponse, error)
	Distribution(ctx context.Context, q domain.FilterQuery) (*domain.DistributionResponse, error)
	Records(ctx context.Context, q domain.FilterQuery) (*domain.RecordsResponse, error)

	// Export writes the filtered rows to w and returns the row count.
	Export(ctx context.Context, q domain.FilterQuery, format domain.ExportFormat, w io.Writer) (int, error)

	// ETag identifies a response on the current snapshot.
	ETag(ctx context.Context, q domain.FilterQuery, extra ...string) (string, error)
}
