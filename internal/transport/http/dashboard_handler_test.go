package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propulsores/internal/dataset"
	apierrors "propulsores/internal/errors"
	"propulsores/internal/services"
	"propulsores/pkg/contracts/domain"
)

func serve(t *testing.T, h *DashboardHandler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Mount("/api", h.Routes())

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sourceFailure() error {
	return fmt.Errorf("load dataset: %w",
		apierrors.NewNetworkError("fetch planilha_1", errors.New("unexpected status 403")))
}

func TestBindFilters(t *testing.T) {
	f := false

	tests := []struct {
		name string
		v    url.Values
		want domain.FilterQuery
	}{
		{
			name: "repeated params",
			v: url.Values{
				"start":         {" 2024-03-01 "},
				"end":           {"2024-03-02"},
				"include_empty": {"false"},
				"partner":       {"101", "202", ""},
				"divergence":    {"Foto borrada"},
			},
			want: domain.FilterQuery{
				Start:        "2024-03-01",
				End:          "2024-03-02",
				IncludeEmpty: &f,
				Partners:     []string{"101", "202"},
				Divergences:  []string{"Foto borrada"},
			},
		},
		{
			name: "values with commas and spaces are kept verbatim",
			v: url.Values{
				"divergence":    {"Documento ilegível, cortado", "Foto borrada "},
				"document_type": {" RG"},
			},
			want: domain.FilterQuery{
				DocumentTypes: []string{" RG"},
				Divergences:   []string{"Documento ilegível, cortado", "Foto borrada "},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, bindFilters(tt.v).ToFilterQuery()); diff != "" {
				t.Errorf("bindFilters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Every option value must select its own rows once it went through the
// query string.
func TestBindFilters_OptionsRoundTrip(t *testing.T) {
	doc := "Análise,Divergências,Tipo de Documento\n" +
		"Rejeitado,\"Documento ilegível, cortado\",RG\n" +
		"Rejeitado,Foto borrada ,\" CNH\"\n" +
		"Confere,,RG\n"
	frame, err := dataset.ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	table := dataset.Merge(frame)
	opts := dataset.BuildOptions(table)

	for _, div := range opts.Divergences {
		t.Run(div, func(t *testing.T) {
			q := bindFilters(url.Values{"divergence": {div}}).ToFilterQuery()
			res := dataset.Apply(table, dataset.Predicates{Divergences: q.Divergences})
			assert.Equal(t, 1, res.Table.Len())
		})
	}
	for _, dt := range opts.DocumentTypes {
		t.Run(dt, func(t *testing.T) {
			q := bindFilters(url.Values{"document_type": {dt}}).ToFilterQuery()
			res := dataset.Apply(table, dataset.Predicates{DocumentTypes: q.DocumentTypes})
			assert.Positive(t, res.Table.Len())
		})
	}
}

func TestDashboardHandler_GetMetrics(t *testing.T) {
	f := false
	query := domain.FilterQuery{
		Start:        "2024-03-01",
		End:          "2024-03-02",
		IncludeEmpty: &f,
		Partners:     []string{"101", "202"},
	}
	target := "/api/metrics?start=2024-03-01&end=2024-03-02&include_empty=false&partner=101&partner=202"

	tests := []struct {
		name           string
		target         string
		header         http.Header
		setupMock      func(*MockDashboardService)
		expectedStatus int
		check          func(t *testing.T, rec *httptest.ResponseRecorder, m *MockDashboardService)
	}{
		{
			name:   "success",
			target: target,
			setupMock: func(m *MockDashboardService) {
				m.On("ETag", query, []string{"/api/metrics"}).Return(`"abc123-1f"`, nil)
				m.On("Metrics", query).Return(&domain.MetricsResponse{
					View:    sampleView(2),
					Metrics: domain.Metrics{Total: 2, DivergenceCount: 1, AccuracyDisplay: "50.0%"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, _ *MockDashboardService) {
				assert.Equal(t, `"abc123-1f"`, rec.Header().Get("ETag"))
				assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
				assert.Contains(t, rec.Body.String(), `"accuracy_display":"50.0%"`)
				assert.Contains(t, rec.Body.String(), `"warnings":[]`)
			},
		},
		{
			name:   "not modified",
			target: target,
			header: http.Header{"If-None-Match": {`"other", "abc123-1f"`}},
			setupMock: func(m *MockDashboardService) {
				m.On("ETag", query, []string{"/api/metrics"}).Return(`"abc123-1f"`, nil)
			},
			expectedStatus: http.StatusNotModified,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, m *MockDashboardService) {
				assert.Empty(t, rec.Body.String())
				m.AssertNotCalled(t, "Metrics", mock.Anything)
			},
		},
		{
			name:           "invalid include_empty",
			target:         "/api/metrics?include_empty=maybe",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, _ *MockDashboardService) {
				p := problem(t, rec.Body)
				assert.Equal(t, apierrors.TypeValidation, p["type"])
				require.Contains(t, p, "errors")
				assert.Equal(t, []interface{}{
					map[string]interface{}{"field": "include_empty", "message": "include_empty must be true or false"},
				}, p["errors"])
			},
		},
		{
			name:   "spreadsheets unavailable",
			target: "/api/metrics",
			setupMock: func(m *MockDashboardService) {
				m.On("ETag", domain.FilterQuery{}, []string{"/api/metrics"}).Return("", sourceFailure())
			},
			expectedStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, rec *httptest.ResponseRecorder, m *MockDashboardService) {
				p := problem(t, rec.Body)
				assert.Equal(t, apierrors.TypeSourceUnavailable, p["type"])
				assert.Contains(t, p["detail"], apierrors.SourceUnavailableMessage)
				assert.Contains(t, p["detail"], "unexpected status 403")
				m.AssertNotCalled(t, "Metrics", mock.Anything)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			tt.setupMock(m)

			rec := serve(t, newDashboardHandler(t, m), tt.target, tt.header)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			tt.check(t, rec, m)
			m.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetSummary(t *testing.T) {
	tests := []struct {
		name           string
		column         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "company",
			column: "company",
			setupMock: func(m *MockDashboardService) {
				m.On("ETag", domain.FilterQuery{}, mock.Anything).Return(`"x"`, nil)
				m.On("Summary", domain.FilterQuery{}, "company").Return(&domain.SummaryResponse{
					View: sampleView(6),
					Summary: domain.Summary{
						Key:   "company",
						Title: services.TitleCompanySummary,
						Rows:  []domain.SummaryRow{{Label: "Empresa A", Count: 2, PctDisplay: "33.3%"}},
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   services.TitleCompanySummary,
		},
		{
			name:           "unknown column",
			column:         "status",
			setupMock:      func(m *MockDashboardService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "column must be one of: company, divergence",
		},
		{
			name:   "service rejects column",
			column: "divergence",
			setupMock: func(m *MockDashboardService) {
				m.On("ETag", domain.FilterQuery{}, mock.Anything).Return(`"x"`, nil)
				m.On("Summary", domain.FilterQuery{}, "divergence").
					Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownSummary, "divergence"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			tt.setupMock(m)

			rec := serve(t, newDashboardHandler(t, m), "/api/summary/"+tt.column, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			m.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_GetTopDivergences(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantLimit      int
		expectedStatus int
		expectedBody   string
	}{
		{name: "default limit", query: "", wantLimit: 10, expectedStatus: http.StatusOK},
		{name: "explicit limit", query: "?limit=5", wantLimit: 5, expectedStatus: http.StatusOK},
		{name: "maximum", query: "?limit=50", wantLimit: 50, expectedStatus: http.StatusOK},
		{name: "zero", query: "?limit=0", expectedStatus: http.StatusBadRequest, expectedBody: "limit must be at least 1"},
		{name: "too large", query: "?limit=51", expectedStatus: http.StatusBadRequest, expectedBody: "limit must be at most 50"},
		{name: "not a number", query: "?limit=ten", expectedStatus: http.StatusBadRequest, expectedBody: "limit must be a valid integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			if tt.wantLimit > 0 {
				extra := []string{"/api/charts/top-divergences", fmt.Sprintf("limit=%d", tt.wantLimit)}
				m.On("ETag", domain.FilterQuery{}, extra).Return(`"x"`, nil)
				m.On("TopDivergences", domain.FilterQuery{}, tt.wantLimit).Return(&domain.TopDivergencesResponse{
					View:  sampleView(6),
					Limit: tt.wantLimit,
					Items: []domain.RankedDivergence{{Reason: "Documento adulterado", Count: 2, Percent: "66.7%"}},
				}, nil)
			}

			rec := serve(t, newDashboardHandler(t, m), "/api/charts/top-divergences"+tt.query, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
				m.AssertNotCalled(t, "TopDivergences", mock.Anything, mock.Anything)
			} else {
				assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"limit":%d`, tt.wantLimit))
			}
			m.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_OtherRoutes(t *testing.T) {
	view := sampleView(6)
	tests := []struct {
		name      string
		target    string
		setupMock func(*MockDashboardService)
		want      string
	}{
		{
			name:   "dashboard",
			target: "/api/dashboard",
			setupMock: func(m *MockDashboardService) {
				m.On("Dashboard", domain.FilterQuery{}).Return(&domain.Dashboard{View: view}, nil)
			},
			want: `"summaries"`,
		},
		{
			name:   "filters",
			target: "/api/filters?partner=ignored",
			setupMock: func(m *MockDashboardService) {
				m.On("Filters").Return(&domain.FilterOptions{Partners: []string{"101"}, DataUntil: "2024-03-03"}, nil)
			},
			want: `"data_until":"2024-03-03"`,
		},
		{
			name:   "timeseries",
			target: "/api/charts/timeseries",
			setupMock: func(m *MockDashboardService) {
				m.On("TimeSeries", domain.FilterQuery{}).Return(&domain.TimeSeriesResponse{
					View:   view,
					Points: []domain.SeriesPoint{{Date: "2024-03-01", Label: "Aprovado", Count: 1}},
				}, nil)
			},
			want: `"date":"2024-03-01"`,
		},
		{
			name:   "distribution",
			target: "/api/charts/distribution",
			setupMock: func(m *MockDashboardService) {
				m.On("Distribution", domain.FilterQuery{}).Return(&domain.DistributionResponse{
					View:   view,
					Slices: []domain.Slice{{Label: "Empresa A", Count: 2}},
				}, nil)
			},
			want: `"label":"Empresa A"`,
		},
		{
			name:   "records",
			target: "/api/records",
			setupMock: func(m *MockDashboardService) {
				m.On("Records", domain.FilterQuery{}).Return(&domain.RecordsResponse{
					View:    view,
					Columns: []string{"Análise", "Filtro_Data"},
					Records: []domain.RecordRow{{Values: []string{"Rejeitado", "2024-03-01"}, Highlight: true}},
					Styled:  true,
				}, nil)
			},
			want: `"highlight":true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			m.On("ETag", domain.FilterQuery{}, mock.Anything).Return(`"x"`, nil)
			tt.setupMock(m)

			rec := serve(t, newDashboardHandler(t, m), tt.target, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			m.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	writeCSV := func(args mock.Arguments) {
		w := args.Get(2).(io.Writer)
		_, _ = io.WriteString(w, "Análise,Filtro_Data\nRejeitado,2024-03-01\n")
	}

	tests := []struct {
		name            string
		target          string
		format          domain.ExportFormat
		result          error
		expectedStatus  int
		wantDisposition string
		wantType        string
	}{
		{
			name:            "csv",
			target:          "/api/export.csv?divergence=Foto%20borrada",
			format:          domain.ExportCSV,
			expectedStatus:  http.StatusOK,
			wantDisposition: `attachment; filename="dados_filtrados.csv"`,
			wantType:        "text/csv; charset=utf-8",
		},
		{
			name:            "xlsx",
			target:          "/api/export.xlsx?divergence=Foto%20borrada",
			format:          domain.ExportXLSX,
			expectedStatus:  http.StatusOK,
			wantDisposition: `attachment; filename="dados_filtrados.xlsx"`,
			wantType:        domain.ExportXLSX.ContentType(),
		},
		{
			name:           "writer failure",
			target:         "/api/export.csv?divergence=Foto%20borrada",
			format:         domain.ExportCSV,
			result:         fmt.Errorf("%w: csv: disk full", services.ErrExportFailed),
			expectedStatus: http.StatusInternalServerError,
			wantType:       "application/json",
		},
		{
			name:           "spreadsheets unavailable",
			target:         "/api/export.csv?divergence=Foto%20borrada",
			format:         domain.ExportCSV,
			result:         sourceFailure(),
			expectedStatus: http.StatusServiceUnavailable,
			wantType:       "application/json",
		},
	}

	q := domain.FilterQuery{Divergences: []string{"Foto borrada"}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			call := m.On("Export", q, tt.format, mock.Anything)
			if tt.result == nil {
				call.Run(writeCSV).Return(1, nil)
			} else {
				call.Return(0, tt.result)
			}

			rec := serve(t, newDashboardHandler(t, m), tt.target, nil)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			if tt.result == nil {
				assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
				assert.Contains(t, rec.Body.String(), "Rejeitado,2024-03-01")
				return
			}

			p := problem(t, rec.Body)
			require.Empty(t, rec.Header().Get("Content-Disposition"))
			if errors.Is(tt.result, services.ErrExportFailed) {
				assert.Equal(t, apierrors.TypeExportFailed, p["type"])
			} else {
				assert.Equal(t, apierrors.TypeSourceUnavailable, p["type"])
			}
			m.AssertExpectations(t)
		})
	}
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: `"a-1"`, want: true},
		{header: `W/"a-1"`, want: true},
		{header: `"b-2", "a-1"`, want: true},
		{header: "*", want: true},
		{header: `"a-2"`, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, `"a-1"`), tt.header)
	}
}
