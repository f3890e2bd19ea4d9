package domain

import (
	"slices"
	"strings"
)

// Status is the lifecycle state reported for a service.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// Kind identifies which discovery source produced a record.
type Kind string

const (
	KindContainer      Kind = "container"
	KindLaunchd        Kind = "launchd"
	KindSystemd        Kind = "systemd"
	KindWindowsService Kind = "windows_service"
	KindProcess        Kind = "process"
)

// ServiceRecord is one entry of a discovery snapshot.
//
// Records are built fresh on every discovery cycle and are never mutated
// once appended to a snapshot. Code that needs a different port set builds
// a copy (see WithPorts).
type ServiceRecord struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is unique within one snapshot.
	// Examples: "nginx.service", "3f2a9c…" (container id), "process-4242"
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// ─────────────────────────────
	// Observed state
	// ─────────────────────────────

	Status Status `json:"status"`

	// Ports has set semantics: sorted ascending, no duplicates.
	Ports []uint16 `json:"ports"`

	// PID is 0 when the source does not expose one.
	PID int `json:"pid,omitempty"`

	// ─────────────────────────────
	// Descriptive
	// ─────────────────────────────

	Path        string `json:"path,omitempty"`
	Description string `json:"description,omitempty"`
	Autostart   bool   `json:"autostart"`

	// ─────────────────────────────
	// Resource usage (process source only)
	// ─────────────────────────────

	CPUPercent    *float64 `json:"cpu_percent,omitempty"`
	MemoryBytes   *uint64  `json:"memory_bytes,omitempty"`
	MemoryPercent *float64 `json:"memory_percent,omitempty"`
}

// HasPID reports whether the record carries an owning process id.
func (s ServiceRecord) HasPID() bool { return s.PID > 0 }

// IsRunning reports whether the record is in the Running state.
func (s ServiceRecord) IsRunning() bool { return s.Status == StatusRunning }

// WithPorts returns a copy of s whose port set is replaced by ports.
func (s ServiceRecord) WithPorts(ports []uint16) ServiceRecord {
	s.Ports = NormalizePorts(ports)
	return s
}

// HasPort reports whether port is in the record's port set.
func (s ServiceRecord) HasPort(port uint16) bool {
	return slices.Contains(s.Ports, port)
}

// LowerName is the key used for case-insensitive ordering.
func (s ServiceRecord) LowerName() string { return strings.ToLower(s.Name) }

// NormalizePorts returns a new sorted, deduplicated copy of ports.
// The result is never nil so that JSON encodes an empty list as [].
func NormalizePorts(ports []uint16) []uint16 {
	out := make([]uint16, 0, len(ports))
	out = append(out, ports...)
	slices.Sort(out)
	return slices.Compact(out)
}

// SamePorts compares two port lists as sets.
func SamePorts(a, b []uint16) bool {
	return slices.Equal(NormalizePorts(a), NormalizePorts(b))
}

// FindService returns the record with the given id.
func FindService(services []ServiceRecord, id string) (ServiceRecord, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceRecord{}, false
}
