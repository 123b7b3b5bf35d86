// Package http holds the HTTP handlers of the dashboard: the JSON API under
// /api, the server-rendered page at / and the Prometheus endpoint.
//
// Handlers stay thin. They bind query parameters into the api/v1 request
// structs, validate them, call the service and render the result with
// go-chi/render. Every failure is answered with an RFC 7807 problem through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/source-unavailable",
//	    "title": "Data Source Unavailable",
//	    "status": 503,
//	    "detail": "Erro ao ler planilhas. ... Detalhe: unexpected status 403",
//	    "instance": "/api/metrics",
//	    "trace_id": "..."
//	}
//
// Filtered GET responses carry an ETag built from the snapshot fingerprint
// and the filter selection; a matching If-None-Match is answered with 304
// before anything is computed.
package http
