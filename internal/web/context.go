package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/registro/internal/core"
)

// withRequestMetadata returns the request context carrying the client IP
// for mutation logs. RemoteAddr was already resolved by TrustedRealIP.
func withRequestMetadata(r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return core.ContextWithClientIP(r.Context(), ip)
}
