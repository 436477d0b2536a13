package fields

import "net/netip"

// privateNetworks are the RFC 1918 ranges plus loopback.
var privateNetworks = mustPrefixes(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
)

// dmzNetworks is a placeholder set callers are expected to override
// with their own topology; it mirrors the private ranges by default.
var dmzNetworks = mustPrefixes(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
)

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}
	return out
}

// IPInNetwork reports whether ip falls inside the CIDR block. Malformed
// input on either side yields false, never an error.
func IPInNetwork(ip, cidr string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return false
	}
	return prefix.Contains(addr.Unmap())
}

// IsInternalIP reports whether ip is in an RFC 1918 private range or
// loopback. Malformed input yields false.
func IsInternalIP(ip string) bool {
	return inAny(ip, privateNetworks)
}

// IsDMZIP reports whether ip is in the configured DMZ ranges.
func IsDMZIP(ip string) bool {
	return inAny(ip, dmzNetworks)
}

func inAny(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
