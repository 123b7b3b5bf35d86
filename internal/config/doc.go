// Package config provides centralized configuration management for the partner
// efficiency dashboard. It loads configuration from the environment and an
// optional YAML file, validates it, and exposes the application constants.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern DASH_* for namespacing:
//
//	DASH_SERVER_PORT=8080
//	DASH_CACHE_TTL=600s
//	DASH_SOURCES_FIRST_URL=https://docs.google.com/spreadsheets/d/.../edit?usp=sharing
//	DASH_SOURCES_SECOND_KIND=sheets
//	DASH_SOURCES_SECOND_SHEET_ID=1W64m1cA5...
//	DASH_FETCH_SHEETS_API_KEY=...
//	DASH_LOGGING_LEVEL=debug
//
// DASH_CONFIG_FILE points at an explicit YAML file; otherwise config.yaml and
// configs/config.yaml are tried.
//
// # Sources
//
// Exactly two spreadsheets are merged, first then second. When neither a URL
// nor a sheet id is configured for a slot, the partner spreadsheet shared for
// that slot is used.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default(), which needs no environment.
package config
