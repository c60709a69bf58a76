package middleware

import (
	"net"
	"net/http"
)

// Scope installs the request scope keyed on RemoteAddr. Behind a trusted proxy it runs after
// chi's RealIP, which rewrites RemoteAddr from the forwarding headers.
func Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), remoteHost(r.RemoteAddr))))
	})
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
