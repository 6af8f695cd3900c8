package middleware

import (
	"fmt"
	"net/http"
	"strings"
)

// Leaflet and its stylesheet come from unpkg, tiles from OpenStreetMap.
const (
	leafletOrigin = "https://unpkg.com"
	tileOrigin    = "https://*.tile.openstreetmap.org"
)

// SecurityHeaders sets the CSP and the usual hardening headers. Inline
// scripts run only with the request nonce. Must run after NonceMiddleware.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy(GetNonce(r.Context())))
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(self)")

		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(nonce string) string {
	scriptSrc := "'self' " + leafletOrigin
	if nonce != "" {
		scriptSrc += fmt.Sprintf(" 'nonce-%s'", nonce)
	}

	directives := []string{
		"default-src 'self'",
		"script-src " + scriptSrc,
		"style-src 'self' 'unsafe-inline' " + leafletOrigin,
		"img-src 'self' data: blob: " + tileOrigin + " " + leafletOrigin,
		"connect-src 'self'",
		"font-src 'self'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}
	return strings.Join(directives, "; ")
}
