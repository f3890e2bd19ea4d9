package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// HostOnly strips an optional port from "ip:port", "[v6]:port" or "ip".
func HostOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// ClientAddr resolves the caller address of r. With trustProxy it honours,
// in order, CF-Connecting-IP, the left-most X-Forwarded-For entry and
// X-Real-IP before falling back to RemoteAddr.
func ClientAddr(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, v := range []string{
			r.Header.Get("CF-Connecting-IP"),
			xff,
			r.Header.Get("X-Real-IP"),
		} {
			if addr, err := netip.ParseAddr(HostOnly(v)); err == nil {
				return addr.Unmap(), true
			}
		}
	}
	addr, err := netip.ParseAddr(HostOnly(r.RemoteAddr))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// AddrMatcher matches addresses against networks and single addresses.
type AddrMatcher struct {
	prefixes []netip.Prefix
}

// NewAddrMatcher parses entries like "10.0.0.0/8" or "::1". Invalid entries
// are returned separately so the caller can report them.
func NewAddrMatcher(list []string) (*AddrMatcher, []string) {
	m := &AddrMatcher{}
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	return m, invalid
}

func (m *AddrMatcher) IsEmpty() bool { return len(m.prefixes) == 0 }

func (m *AddrMatcher) Allow(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
