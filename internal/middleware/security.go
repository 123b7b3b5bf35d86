package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecureHeaders sets the browser security headers on every response.
type SecureHeaders struct {
	HSTSMaxAge            int
	ContentSecurityPolicy string
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// DefaultSecureHeaders returns the headers used for the dashboard page and API.
func DefaultSecureHeaders() *SecureHeaders {
	return &SecureHeaders{
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: defaultCSP(),
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     defaultPermissionsPolicy(),
	}
}

// Handler applies the headers. HSTS is only sent over TLS.
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		if r.TLS != nil && sh.HSTSMaxAge > 0 {
			h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(sh.HSTSMaxAge)+"; includeSubDomains")
		}
		if sh.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", sh.ContentSecurityPolicy)
		}
		if sh.XFrameOptions != "" {
			h.Set("X-Frame-Options", sh.XFrameOptions)
		}
		if sh.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", sh.XContentTypeOptions)
		}
		if sh.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", sh.ReferrerPolicy)
		}
		if sh.PermissionsPolicy != "" {
			h.Set("Permissions-Policy", sh.PermissionsPolicy)
		}

		next.ServeHTTP(w, r)
	})
}

// defaultCSP allows the page's inline chart bootstrap and the charting
// library from jsDelivr.
func defaultCSP() string {
	policies := []string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(policies, "; ")
}

func defaultPermissionsPolicy() string {
	policies := []string{
		"camera=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
	return strings.Join(policies, ", ")
}
