package config

import (
	"time"

	"propulsores/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "Eficiência de Parceiros"
	AppVersion = contracts.Version

	// Source kinds
	SourceKindCSV    = "csv"
	SourceKindSheets = "sheets"

	// Partner spreadsheets, as shared ("Qualquer pessoa com o link").
	DefaultSourceURL1 = "https://docs.google.com/spreadsheets/d/1VvVWTAlmvQSQXyfv4sfBiag2K6g1DqnEea5a8HgB_Y0/edit?usp=sharing"
	DefaultSourceURL2 = "https://docs.google.com/spreadsheets/d/1W64m1cA5WzyrzciDcXc0R28zVMnRrP7kK7sxrSiHAXE/edit?usp=sharing"

	// Cache Settings
	DefaultCacheTTL = 600 * time.Second

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second

	// Export file names
	ExportCSVFileName  = "dados_filtrados.csv"
	ExportXLSXFileName = "dados_filtrados.xlsx"

	// Top-N divergence chart
	DefaultTopDivergences = 10
	MaxTopDivergences     = 50

	// User-facing messages
	MsgDateFilterUnavailable = "Filtro de data indisponível."
)

// URLs and Endpoints
const (
	APIBasePath     = "/api"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)
