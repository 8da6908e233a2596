package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/docket/internal/core"
)

// withClient records the caller's address and user agent for the import
// history. RemoteAddr has been resolved by TrustedRealIP.
func withClient(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, clientIP(r), r.UserAgent())
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
