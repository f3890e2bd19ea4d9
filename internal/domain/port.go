package domain

import (
	"net/netip"
	"strings"
)

type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

type PortStatus string

const (
	PortOccupied PortStatus = "occupied"
	PortFree     PortStatus = "free"
)

// PortRecord is one row of the host port table or one scan hit.
type PortRecord struct {
	Port        uint16     `json:"port"`
	Protocol    Protocol   `json:"protocol"`
	Status      PortStatus `json:"status"`
	ProcessName string     `json:"process_name,omitempty"`
	PID         int        `json:"pid,omitempty"`

	// Address is the local bind address as printed by the enumeration tool
	// ("0.0.0.0", "[::]", "*", "127.0.0.1", …). Empty for scan results.
	Address string `json:"address,omitempty"`
}

// PortsByPID groups the distinct ports of a port table by owning pid.
// Records without a pid are ignored.
func PortsByPID(records []PortRecord) map[int][]uint16 {
	out := make(map[int][]uint16)
	for _, r := range records {
		if r.PID <= 0 {
			continue
		}
		out[r.PID] = append(out[r.PID], r.Port)
	}
	for pid, ports := range out {
		out[pid] = NormalizePorts(ports)
	}
	return out
}

// OpenPorts returns the distinct ports present in a port table.
func OpenPorts(records []PortRecord) map[uint16]struct{} {
	out := make(map[uint16]struct{}, len(records))
	for _, r := range records {
		out[r.Port] = struct{}{}
	}
	return out
}

// IsWildcardAddress reports whether addr binds every interface.
func IsWildcardAddress(addr string) bool {
	switch strings.TrimSpace(addr) {
	case "*", "0.0.0.0", "::", "[::]", "::0", "[::0]":
		return true
	}
	return false
}

// IsPublicBind reports whether a bind address is reachable from outside the
// host: a wildcard, or a globally routable non-private unicast address.
func IsPublicBind(addr string) bool {
	if IsWildcardAddress(addr) {
		return true
	}
	s := strings.Trim(strings.TrimSpace(addr), "[]")
	// ss prints scoped addresses like "127.0.0.53%lo"
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	if ip.IsUnspecified() {
		return true
	}
	return ip.IsGlobalUnicast() && !ip.IsPrivate()
}
