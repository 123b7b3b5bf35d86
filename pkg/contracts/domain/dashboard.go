package domain

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// FilterQuery is one filter selection as sent by the dashboard page.
// Start and End are YYYY-MM-DD; both empty means the data bounds.
// A nil IncludeEmpty means true.
type FilterQuery struct {
	Start         string   `json:"start,omitempty"`
	End           string   `json:"end,omitempty"`
	IncludeEmpty  *bool    `json:"include_empty,omitempty"`
	Partners      []string `json:"partner,omitempty"`
	DocumentTypes []string `json:"document_type,omitempty"`
	Divergences   []string `json:"divergence,omitempty"`
}

// CanonicalKey renders q independent of selection order, for cache keys and
// ETags.
func (q FilterQuery) CanonicalKey() string {
	include := "default"
	if q.IncludeEmpty != nil {
		include = strconv.FormatBool(*q.IncludeEmpty)
	}
	parts := []string{
		"start=" + q.Start,
		"end=" + q.End,
		"include_empty=" + include,
		"partner=" + sortedJoin(q.Partners),
		"document_type=" + sortedJoin(q.DocumentTypes),
		"divergence=" + sortedJoin(q.Divergences),
	}
	return strings.Join(parts, "\x1f")
}

func sortedJoin(values []string) string {
	cp := append([]string(nil), values...)
	sort.Strings(cp)
	return strings.Join(cp, "\x1e")
}

// Metrics are the four headline cards.
type Metrics struct {
	Total            int     `json:"total"`
	DivergenceCount  int     `json:"divergence_count"`
	AccuracyPct      float64 `json:"accuracy_pct"`
	AccuracyDisplay  string  `json:"accuracy_display"`
	TamperedCount    int     `json:"tampered_count"`
	TamperedSharePct float64 `json:"tampered_share_pct"`
	TamperedHelp     string  `json:"tampered_help"`
}

// SummaryRow is one line of a frequency table.
type SummaryRow struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Pct        float64 `json:"pct"`
	PctDisplay string  `json:"pct_display"`
}

// Summary is a titled frequency table over one column.
type Summary struct {
	Key    string       `json:"key"`
	Title  string       `json:"title"`
	Column string       `json:"column"`
	Rows   []SummaryRow `json:"rows"`
}

// SeriesPoint is one stacked segment of the daily chart.
type SeriesPoint struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RankedDivergence is one bar of the divergence ranking.
type RankedDivergence struct {
	Reason  string `json:"reason"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

// Slice is one wedge of the distribution chart.
type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Charts groups the three chart series of the dashboard.
type Charts struct {
	TimeSeries     []SeriesPoint      `json:"time_series"`
	TopDivergences []RankedDivergence `json:"top_divergences"`
	Distribution   []Slice            `json:"distribution"`
}

// FilterOptions lists the selectable filter values of the full dataset.
type FilterOptions struct {
	Partners            []string `json:"partners"`
	DocumentTypes       []string `json:"document_types"`
	Divergences         []string `json:"divergences"`
	DateFilterAvailable bool     `json:"date_filter_available"`
	MinDate             string   `json:"min_date,omitempty"`
	MaxDate             string   `json:"max_date,omitempty"`
	// DataUntil is the "Dados até" banner, the latest creation date.
	DataUntil string `json:"data_until,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

// AppliedFilters echoes what the filter engine actually did.
type AppliedFilters struct {
	DateFilterActive  bool     `json:"date_filter_active"`
	Start             string   `json:"start,omitempty"`
	End               string   `json:"end,omitempty"`
	IncludeEmptyDates bool     `json:"include_empty_dates"`
	Partners          []string `json:"partners,omitempty"`
	DocumentTypes     []string `json:"document_types,omitempty"`
	Divergences       []string `json:"divergences,omitempty"`
}

// Snapshot describes the cached dataset a response was computed from.
type Snapshot struct {
	LoadedAt    time.Time `json:"loaded_at"`
	Fingerprint string    `json:"fingerprint"`
	TotalRows   int       `json:"total_rows"`
	Columns     []string  `json:"columns"`
}

// View is the part every filtered response shares.
type View struct {
	Snapshot Snapshot       `json:"snapshot"`
	Applied  AppliedFilters `json:"applied"`
	Rows     int            `json:"rows"`
	Warnings []string       `json:"warnings"`
}

// Dashboard is the whole page in one response.
type Dashboard struct {
	View
	Metrics   Metrics       `json:"metrics"`
	Summaries []Summary     `json:"summaries"`
	Charts    Charts        `json:"charts"`
	Filters   FilterOptions `json:"filters"`
}

// MetricsResponse wraps Metrics for /api/metrics.
type MetricsResponse struct {
	View
	Metrics Metrics `json:"metrics"`
}

// SummaryResponse wraps one Summary.
type SummaryResponse struct {
	View
	Summary Summary `json:"summary"`
}

// TimeSeriesResponse wraps the daily chart.
type TimeSeriesResponse struct {
	View
	Points []SeriesPoint `json:"points"`
}

// TopDivergencesResponse wraps the divergence ranking.
type TopDivergencesResponse struct {
	View
	Limit int                `json:"limit"`
	Items []RankedDivergence `json:"items"`
}

// DistributionResponse wraps the pie chart.
type DistributionResponse struct {
	View
	Column string  `json:"column"`
	Slices []Slice `json:"slices"`
}

// RecordRow is one row of the detail table.
type RecordRow struct {
	Values    []string `json:"values"`
	Highlight bool     `json:"highlight"`
}

// RecordsResponse is the detail table. Columns include Filtro_Data, whose
// value is the last entry of each row.
type RecordsResponse struct {
	View
	Columns []string    `json:"columns"`
	Records []RecordRow `json:"records"`
	Styled  bool        `json:"styled"`
}

// ExportFormat selects the download file type.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}
