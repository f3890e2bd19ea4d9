package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrToolUnavailable means an external command is missing or exited non-zero.
	// Callers degrade to an empty result.
	ErrToolUnavailable = errors.New("external tool unavailable")

	// ErrTargetNotFound means a named service, pid or container does not exist.
	ErrTargetNotFound = errors.New("target not found")

	// ErrProbeTimeout means a TCP probe did not complete in time. Counted as closed.
	ErrProbeTimeout = errors.New("probe timeout")
)

// ParseError describes a record that could not be parsed and was skipped.
type ParseError struct {
	Source string // e.g. "ss", "systemctl", "docker"
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %q", e.Source, e.Reason, e.Line)
}
