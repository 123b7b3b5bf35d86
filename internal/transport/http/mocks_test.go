package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "propulsores/internal/errors"
	"propulsores/internal/middleware"
	"propulsores/internal/services"
	"propulsores/internal/shared/testutil"
	"propulsores/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Dashboard(ctx context.Context, q domain.FilterQuery) (*domain.Dashboard, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardService) Filters(ctx context.Context) (*domain.FilterOptions, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FilterOptions), args.Error(1)
}

func (m *MockDashboardService) Metrics(ctx context.Context, q domain.FilterQuery) (*domain.MetricsResponse, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricsResponse), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context, q domain.FilterQuery, key string) (*domain.SummaryResponse, error) {
	args := m.Called(q, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryResponse), args.Error(1)
}

func (m *MockDashboardService) TimeSeries(ctx context.Context, q domain.FilterQuery) (*domain.TimeSeriesResponse, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSeriesResponse), args.Error(1)
}

func (m *MockDashboardService) TopDivergences(ctx context.Context, q domain.FilterQuery, limit int) (*domain.TopDivergencesResponse, error) {
	args := m.Called(q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TopDivergencesResponse), args.Error(1)
}

func (m *MockDashboardService) Distribution(ctx context.Context, q domain.FilterQuery) (*domain.DistributionResponse, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DistributionResponse), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, q domain.FilterQuery) (*domain.RecordsResponse, error) {
	args := m.Called(q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordsResponse), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, q domain.FilterQuery, format domain.ExportFormat, w io.Writer) (int, error) {
	args := m.Called(q, format, w)
	return args.Int(0), args.Error(1)
}

func (m *MockDashboardService) ETag(ctx context.Context, q domain.FilterQuery, extra ...string) (string, error) {
	args := m.Called(q, extra)
	return args.String(0), args.Error(1)
}

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() services.VersionResponse {
	return m.Called().Get(0).(services.VersionResponse)
}

func newDashboardHandler(t *testing.T, svc DashboardServiceInterface) *DashboardHandler {
	t.Helper()
	logger := testutil.Logger(t)
	return NewDashboardHandler(svc, middleware.NewValidator(), logger, apierrors.NewErrorHandler(logger, false))
}

// problem decodes an RFC 7807 body.
func problem(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var p map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&p))
	return p
}

func sampleView(rows int) domain.View {
	return domain.View{
		Snapshot: domain.Snapshot{Fingerprint: "abc123", TotalRows: 6},
		Applied:  domain.AppliedFilters{IncludeEmptyDates: true},
		Rows:     rows,
		Warnings: []string{},
	}
}

var _ http.Handler = (*MetricsHandler)(nil)
