// Package location builds the Location header of "resource created"
// responses, taking a fronting reverse proxy into account.
package location

import (
	"net/http"
	"strings"
)

// OriginalRequestURIHeader is set by the reverse proxy to the URI the client
// requested, e.g. /reverse_proxy_entry/service_path.
const OriginalRequestURIHeader = "X-Original-Request-Uri"

// BasePath returns scheme://host, or scheme://host/<entry> when the request
// went through a reverse proxy that set originalURI.
func BasePath(scheme, host, originalURI string) string {
	if originalURI == "" {
		return scheme + "://" + host
	}
	parts := strings.SplitN(originalURI, "/", 3)
	entry := ""
	if len(parts) > 1 {
		entry = "/" + parts[1]
	}
	return scheme + "://" + host + entry
}

// URL returns the absolute location of path.
func URL(scheme, host, originalURI, path string) string {
	return BasePath(scheme, host, originalURI) + path
}

// Scheme returns the scheme r was requested with: r.URL.Scheme when a
// forwarded header set it, otherwise derived from the connection.
func Scheme(r *http.Request) string {
	if r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// ForwardedScheme copies X-Forwarded-Proto into r.URL.Scheme. Only mount it
// behind a proxy that sets the header.
func ForwardedScheme(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			proto = strings.ToLower(strings.TrimSpace(strings.SplitN(proto, ",", 2)[0]))
			if proto == "http" || proto == "https" {
				r.URL.Scheme = proto
			}
		}
		next.ServeHTTP(w, r)
	})
}
