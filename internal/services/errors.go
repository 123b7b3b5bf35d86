package services

import "errors"

// Dashboard service errors
var (
	// Request errors
	ErrUnknownSummary    = errors.New("unknown summary column")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidLimit      = errors.New("limit out of range")

	// Export errors
	ErrExportFailed = errors.New("export failed")
)
