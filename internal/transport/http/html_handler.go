package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "propulsores/internal/errors"
	"propulsores/internal/middleware"
	"propulsores/pkg/contracts"
	"propulsores/pkg/contracts/domain"
)

// PageTitle is the heading of the dashboard page.
const PageTitle = "Eficiência de Parceiros"

//go:embed templates/*.html
var templateFiles embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"selected": func(values []string, v string) bool {
		for _, s := range values {
			if s == v {
				return true
			}
		}
		return false
	},
	"barWidth": func(pct float64) template.CSS {
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return template.CSS(strconv.FormatFloat(pct, 'f', 1, 64) + "%")
	},
}).ParseFS(templateFiles, "templates/dashboard.html"))

// pageData is the view model of the dashboard page
type pageData struct {
	Title        string
	Version      string
	Error        string
	Dashboard    *domain.Dashboard
	Records      *domain.RecordsResponse
	Query        domain.FilterQuery
	Start        string
	End          string
	IncludeEmpty bool
	ExportQuery  template.URL
}

// PageHandler renders the server-side dashboard page
type PageHandler struct {
	service      DashboardServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(service DashboardServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP handles GET /. A spreadsheet failure renders only the error
// message, with status 503.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := bindFilters(r.URL.Query())
	if err := h.validator.Struct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := params.ToFilterQuery()

	data := pageData{
		Title:   PageTitle,
		Version: contracts.GetVersionString(),
		Query:   q,
	}

	dash, err := h.service.Dashboard(r.Context(), q)
	if err == nil {
		data.Records, err = h.service.Records(r.Context(), q)
	}
	if err != nil {
		if !apierrors.IsSourceError(err) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "spreadsheets unavailable",
			slog.String("error", err.Error()),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)
		data.Error = apierrors.SourceUnavailableDetail(err)
		h.render(w, r, http.StatusServiceUnavailable, data)
		return
	}

	data.Dashboard = dash
	data.IncludeEmpty = dash.Applied.IncludeEmptyDates
	data.Start, data.End = dash.Applied.Start, dash.Applied.End
	if !dash.Applied.DateFilterActive {
		data.Start, data.End = dash.Filters.MinDate, dash.Filters.MaxDate
	}
	data.ExportQuery = template.URL(exportQuery(q).Encode())

	h.render(w, r, http.StatusOK, data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("render dashboard page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// exportQuery rebuilds the filter parameters so the download links export
// what the page shows.
func exportQuery(q domain.FilterQuery) url.Values {
	v := url.Values{}
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.End != "" {
		v.Set("end", q.End)
	}
	if q.IncludeEmpty != nil {
		v.Set("include_empty", strconv.FormatBool(*q.IncludeEmpty))
	}
	for _, p := range q.Partners {
		v.Add("partner", p)
	}
	for _, d := range q.DocumentTypes {
		v.Add("document_type", d)
	}
	for _, d := range q.Divergences {
		v.Add("divergence", d)
	}
	return v
}
