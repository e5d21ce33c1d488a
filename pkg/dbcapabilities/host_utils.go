package dbcapabilities

import (
	"net"
	"strings"
)

// NormalizeHost lowercases host and maps every loopback form to "localhost".
// No DNS resolution is performed.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "localhost" {
		return host
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "localhost"
	}
	return host
}

// IsLocalhostVariant checks if the given host is a loopback address or "localhost".
func IsLocalhostVariant(host string) bool {
	return NormalizeHost(host) == "localhost"
}

// IsPrivateAddress reports whether host is a loopback, private (RFC 1918),
// unique local or link-local IP. Hostnames are treated as public since most
// hosted backends publish global DNS names.
func IsPrivateAddress(host string) bool {
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
