package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPResolver determines the client address of a request.
//
// SECURITY: only set TrustProxy when running behind a reverse proxy you control.
// Forwarding headers are trivially spoofed by direct clients.
type IPResolver struct {
	// TrustProxy enables X-Forwarded-For and X-Real-IP
	TrustProxy bool

	// TrustedProxyCount is the number of proxies appending to X-Forwarded-For,
	// counted from the right. Zero is treated as one.
	TrustedProxyCount int
}

// ClientIP returns the client IP for r, or RemoteAddr unchanged when it cannot be parsed
func (res IPResolver) ClientIP(r *http.Request) string {
	if res.TrustProxy {
		if ip, ok := forwardedFor(r.Header.Get("X-Forwarded-For"), res.TrustedProxyCount); ok {
			return ip
		}
		if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}
	return remoteIP(r.RemoteAddr)
}

// forwardedFor picks the client entry from X-Forwarded-For. Each proxy appends
// the peer it received the request from, so the last n entries were written by
// our n trusted proxies and the client sits at len-n. Anything further left
// was supplied by the client.
func forwardedFor(xff string, trustedProxyCount int) (string, bool) {
	if xff == "" {
		return "", false
	}

	hops := strings.Split(xff, ",")
	proxies := trustedProxyCount
	if proxies <= 0 {
		proxies = 1
	}
	idx := len(hops) - proxies
	if idx < 0 {
		idx = 0
	}
	return parseIP(hops[idx])
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
