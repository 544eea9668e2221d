package util

import "net/netip"

// IsLoopbackHostname reports whether hostname names the local machine.
// It accepts "localhost", the whole 127.0.0.0/8 range and ::1, with or without
// IPv6 brackets. It expects a hostname without port, as returned by url.URL.Hostname.
func IsLoopbackHostname(hostname string) bool {
	if hostname == "localhost" {
		return true
	}

	if len(hostname) > 2 && hostname[0] == '[' && hostname[len(hostname)-1] == ']' {
		hostname = hostname[1 : len(hostname)-1]
	}

	addr, err := netip.ParseAddr(hostname)
	if err != nil {
		return false
	}
	return addr.Unmap().IsLoopback()
}
