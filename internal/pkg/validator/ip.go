package validator

import (
	"net/netip"
)

// ClientIPKey returns ip in canonical form for use in cache keys. IPv6 zones
// are dropped and IPv4-mapped addresses are unmapped. Unparseable input
// yields fallback.
func ClientIPKey(ip, fallback string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return fallback
	}
	return addr.WithZone("").Unmap().String()
}
