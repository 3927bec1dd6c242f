package request

import (
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address. Proxy headers win over
// the socket address: first hop of X-Forwarded-For, then X-Real-IP, then
// RemoteAddr as-is.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
