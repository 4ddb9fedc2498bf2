package helpers

import (
	"net"
	"strings"
)

// ExtractHostname extracts the lookup hostname from a Host header: the port is
// dropped, trailing dots are trimmed and the result is lowercased
func ExtractHostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	return strings.ToLower(strings.TrimRight(host, "."))
}
