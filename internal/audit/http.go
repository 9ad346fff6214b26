package audit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts client ip from common headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// FromRequest seeds an entry with request-scoped fields.
func FromRequest(r *http.Request, actor string, role string, action string) Entry {
	return Entry{
		Actor:     actor,
		Role:      role,
		Action:    action,
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}
