package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig lists the response headers set on every page. An empty
// value leaves the header out.
type HeadersConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string

	// HSTSMaxAge is only sent over TLS; 0 disables it.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	// NoStore marks responses as uncacheable. Pages carry per-user balances.
	NoStore bool
}

// DefaultHeadersConfig allows first-party scripts, styles and images only.
// Inline styles are needed for the share bars.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'self'; " +
			"script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"object-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'",
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "same-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		NoStore:               true,
	}
}

type HeadersMiddleware struct {
	fixed http.Header
	hsts  string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	fixed := make(http.Header)
	for name, value := range map[string]string{
		"Content-Security-Policy": config.CSP,
		"X-Frame-Options":         config.XFrameOptions,
		"X-Content-Type-Options":  config.XContentTypeOptions,
		"Referrer-Policy":         config.ReferrerPolicy,
		"Permissions-Policy":      config.PermissionsPolicy,
	} {
		if value != "" {
			fixed.Set(name, value)
		}
	}
	if config.NoStore {
		fixed.Set("Cache-Control", "no-store")
	}

	m := &HeadersMiddleware{fixed: fixed}
	if config.HSTSMaxAge > 0 {
		m.hsts = fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			m.hsts += "; includeSubDomains"
		}
	}
	return m
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for name, values := range h.fixed {
			headers[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware overrides Cache-Control for embedded assets.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
