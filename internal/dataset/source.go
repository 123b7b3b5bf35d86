package dataset

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"propulsores/internal/config"
	apperrors "propulsores/internal/errors"
)

// Source fetches one spreadsheet.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Frame, error)
}

const (
	sharingSuffix = "/edit?usp=sharing"
	exportSuffix  = "/export?format=csv"

	defaultSheetsRange = "A:ZZ"
)

// ExportURL turns a spreadsheet sharing link into its CSV export link.
// Other URLs are returned unchanged.
func ExportURL(sharingURL string) string {
	return strings.Replace(sharingURL, sharingSuffix, exportSuffix, 1)
}

// HTTPSource downloads a CSV export over HTTP.
type HTTPSource struct {
	name      string
	url       string
	client    *http.Client
	userAgent string
}

// NewHTTPSource creates a source for a sharing or export link.
func NewHTTPSource(name, url string, client *http.Client, userAgent string) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: config.DefaultHTTPTimeout}
	}
	return &HTTPSource{
		name:      name,
		url:       ExportURL(url),
		client:    client,
		userAgent: userAgent,
	}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.name }

// URL returns the export link that is fetched.
func (s *HTTPSource) URL() string { return s.url }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (*Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, s.networkError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "text/csv")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.networkError(fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	// Private sheets answer 200 with a sign-in page.
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mediaType == "text/html" {
		return nil, s.parsingError(fmt.Errorf("expected CSV, got an HTML page"))
	}

	frame, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, s.parsingError(err)
	}
	return frame, nil
}

func (s *HTTPSource) networkError(cause error) error {
	return apperrors.NewNetworkError(fmt.Sprintf("fetch %s", s.name), cause).
		WithContext("source", s.name).
		WithContext("url", s.url)
}

func (s *HTTPSource) parsingError(cause error) error {
	return apperrors.NewParsingError(fmt.Sprintf("parse %s", s.name), cause).
		WithContext("source", s.name).
		WithContext("url", s.url)
}

// ValuesGetter reads a range of a spreadsheet.
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

type sheetsValues struct {
	svc *sheets.Service
}

func (v sheetsValues) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SheetsSource reads a spreadsheet range through the Google Sheets API.
type SheetsSource struct {
	name          string
	spreadsheetID string
	readRange     string
	values        ValuesGetter
}

// NewSheetsSource creates a source backed by the Sheets API. Exactly one of
// apiKey or credentialsFile is used, apiKey first.
func NewSheetsSource(ctx context.Context, name, spreadsheetID, readRange, apiKey, credentialsFile string) (*SheetsSource, error) {
	var opts []option.ClientOption
	switch {
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile), option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("sheets source %s needs an api key or credentials file", name), nil)
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("create sheets client for %s", name), err)
	}
	return NewSheetsSourceWithValues(name, spreadsheetID, readRange, sheetsValues{svc: svc}), nil
}

// NewSheetsSourceWithValues creates a Sheets source over any ValuesGetter.
func NewSheetsSourceWithValues(name, spreadsheetID, readRange string, values ValuesGetter) *SheetsSource {
	if readRange == "" {
		readRange = defaultSheetsRange
	}
	return &SheetsSource{
		name:          name,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		values:        values,
	}
}

// Name implements Source.
func (s *SheetsSource) Name() string { return s.name }

// Fetch implements Source.
func (s *SheetsSource) Fetch(ctx context.Context) (*Frame, error) {
	values, err := s.values.GetValues(ctx, s.spreadsheetID, s.readRange)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("fetch %s", s.name), err).
			WithContext("source", s.name).
			WithContext("spreadsheet_id", s.spreadsheetID)
	}

	frame, err := FrameFromValues(values)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("parse %s", s.name), err).
			WithContext("source", s.name).
			WithContext("spreadsheet_id", s.spreadsheetID)
	}
	return frame, nil
}

// NewSources builds the configured sources in merge order.
func NewSources(ctx context.Context, sources config.SourcesConfig, fetch config.FetchConfig) ([]Source, error) {
	client := &http.Client{Timeout: fetch.Timeout}

	out := make([]Source, 0, 2)
	for _, sc := range sources.List() {
		switch strings.ToLower(sc.Kind) {
		case config.SourceKindCSV, "":
			out = append(out, NewHTTPSource(sc.Name, sc.URL, client, fetch.UserAgent))
		case config.SourceKindSheets:
			src, err := NewSheetsSource(ctx, sc.Name, sc.SheetID, sc.Range, fetch.SheetsAPIKey, fetch.CredentialsFile)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		default:
			return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", sc.Kind), nil)
		}
	}
	return out, nil
}
