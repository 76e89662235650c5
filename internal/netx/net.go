// Package netx holds small networking helpers shared by the HTTP layer.
package netx

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the originating client address of an HTTP request.
// The leftmost X-Forwarded-For entry wins when a proxy set one; otherwise
// the connection's remote address is used, with the port stripped.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
