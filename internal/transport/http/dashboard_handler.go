package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"propulsores/internal/config"
	apierrors "propulsores/internal/errors"
	"propulsores/internal/middleware"
	"propulsores/internal/services"
	api "propulsores/pkg/contracts/api/v1"
	"propulsores/pkg/contracts/domain"
)

// DashboardHandler serves the dashboard JSON API and the downloads
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, to be mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/filters", h.GetFilters)
		r.Get("/metrics", h.GetMetrics)
		r.Get("/summary/{column}", h.GetSummary)
		r.Get("/records", h.GetRecords)

		r.Route("/charts", func(r chi.Router) {
			r.Get("/timeseries", h.GetTimeSeries)
			r.Get("/top-divergences", h.GetTopDivergences)
			r.Get("/distribution", h.GetDistribution)
		})
	})

	r.Get("/export.csv", h.Export(domain.ExportCSV))
	r.Get("/export.xlsx", h.Export(domain.ExportXLSX))

	return r
}

// bindFilters reads the shared filter parameters. Multi-select values are
// repeated parameters and are kept verbatim: option values are raw cell text
// and may contain commas or surrounding spaces.
func bindFilters(v url.Values) api.FilterParams {
	return api.FilterParams{
		Start:         strings.TrimSpace(v.Get("start")),
		End:           strings.TrimSpace(v.Get("end")),
		IncludeEmpty:  strings.TrimSpace(v.Get("include_empty")),
		Partners:      multiValue(v, "partner"),
		DocumentTypes: multiValue(v, "document_type"),
		Divergences:   multiValue(v, "divergence"),
	}
}

// multiValue drops only empty entries, which no option can produce.
func multiValue(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		if raw != "" {
			out = append(out, raw)
		}
	}
	return out
}

// filterQuery binds and validates the filter parameters of r.
func (h *DashboardHandler) filterQuery(r *http.Request) (domain.FilterQuery, error) {
	params := bindFilters(r.URL.Query())
	if err := h.validator.Struct(params); err != nil {
		return domain.FilterQuery{}, err
	}
	return params.ToFilterQuery(), nil
}

// notModified sets the ETag of the response and reports whether the client
// copy is current. It writes the error response itself when the snapshot
// cannot be loaded, so the caller only has to return.
func (h *DashboardHandler) notModified(w http.ResponseWriter, r *http.Request, q domain.FilterQuery, extra ...string) bool {
	tag, err := h.service.ETag(r.Context(), q, append([]string{r.URL.Path}, extra...)...)
	if err != nil {
		h.handleServiceError(w, r, err)
		return true
	}

	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}

// respond runs compute unless the client copy is current and renders the
// result as JSON.
func (h *DashboardHandler) respond(w http.ResponseWriter, r *http.Request, q domain.FilterQuery, extra []string, compute func(context.Context) (interface{}, error)) {
	if h.notModified(w, r, q, extra...) {
		return
	}

	result, err := compute(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// handleServiceError maps service errors to API errors
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := chimw.GetReqID(r.Context())

	var mapped error
	switch {
	case errors.Is(err, services.ErrUnknownSummary):
		mapped = apierrors.ErrValidation("column", err.Error())
	case errors.Is(err, services.ErrInvalidLimit):
		mapped = apierrors.ErrValidation("limit", err.Error())
	case errors.Is(err, services.ErrUnsupportedFormat):
		mapped = apierrors.ErrValidation("format", err.Error())
	}

	if mapped != nil {
		h.logger.WarnContext(r.Context(), "request rejected",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, mapped)
		return
	}

	h.logger.ErrorContext(r.Context(), "dashboard request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
		slog.String("request_id", reqID),
	)
	h.errorHandler.HandleError(w, r, err)
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.filterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Dashboard(ctx, q)
	})
}

// GetFilters handles GET /api/filters. Options cover the whole dataset, so
// filter parameters are ignored.
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, domain.FilterQuery{}, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Filters(ctx)
	})
}

// GetMetrics handles GET /api/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	q, err := h.filterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Metrics(ctx, q)
	})
}

// GetSummary handles GET /api/summary/{column}
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	req := api.SummaryRequest{
		FilterParams: bindFilters(r.URL.Query()),
		Column:       chi.URLParam(r, "column"),
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := req.ToFilterQuery()
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Summary(ctx, q, req.Column)
	})
}

// GetTimeSeries handles GET /api/charts/timeseries
func (h *DashboardHandler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	q, err := h.filterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.TimeSeries(ctx, q)
	})
}

// GetTopDivergences handles GET /api/charts/top-divergences?limit=N
func (h *DashboardHandler) GetTopDivergences(w http.ResponseWriter, r *http.Request) {
	req := api.TopDivergencesRequest{
		FilterParams: bindFilters(r.URL.Query()),
		Limit:        config.DefaultTopDivergences,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be a valid integer"))
			return
		}
		req.Limit = limit
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	q := req.ToFilterQuery()
	h.respond(w, r, q, []string{"limit=" + strconv.Itoa(req.Limit)}, func(ctx context.Context) (interface{}, error) {
		return h.service.TopDivergences(ctx, q, req.Limit)
	})
}

// GetDistribution handles GET /api/charts/distribution
func (h *DashboardHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := h.filterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Distribution(ctx, q)
	})
}

// GetRecords handles GET /api/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q, err := h.filterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, q, nil, func(ctx context.Context) (interface{}, error) {
		return h.service.Records(ctx, q)
	})
}

// Export handles GET /api/export.csv and /api/export.xlsx. The file is
// built in memory first so a failure can still be answered with a problem.
func (h *DashboardHandler) Export(format domain.ExportFormat) http.HandlerFunc {
	fileName := config.ExportCSVFileName
	if format == domain.ExportXLSX {
		fileName = config.ExportXLSXFileName
	}

	return func(w http.ResponseWriter, r *http.Request) {
		req := api.ExportRequest{
			FilterParams: bindFilters(r.URL.Query()),
			Format:       string(format),
		}
		if err := h.validator.Struct(req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		var buf bytes.Buffer
		rows, err := h.service.Export(r.Context(), req.ToFilterQuery(), format, &buf)
		if errors.Is(err, services.ErrExportFailed) {
			h.logger.ErrorContext(r.Context(), "export failed",
				slog.String("format", string(format)),
				slog.String("error", err.Error()),
			)
			h.errorHandler.HandleError(w, r, apierrors.ExportError(string(format), err))
			return
		}
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		h.logger.InfoContext(r.Context(), "export served",
			slog.String("format", string(format)),
			slog.Int("rows", rows),
			slog.Int("bytes", buf.Len()),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
