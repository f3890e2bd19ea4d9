package hostexec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// FakeRunner replays recorded command output. It is used by tests across
// packages so that parsers and providers run without the real tools.
//
// Outputs and Errors are keyed by CommandLine(name, args...). A command with
// no entry behaves like a missing binary.
type FakeRunner struct {
	Outputs map[string]string
	Errors  map[string]error
	// Missing lists binaries LookPath must report as absent.
	Missing []string

	mu    sync.Mutex
	calls []string
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)

	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	if err, ok := f.Errors[line]; ok {
		return nil, err
	}
	if out, ok := f.Outputs[line]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%s: %w", name, domain.ErrToolUnavailable)
}

func (f *FakeRunner) LookPath(name string) bool {
	for _, m := range f.Missing {
		if m == name {
			return false
		}
	}
	return true
}

// Calls returns the command lines run so far.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times a command starting with prefix ran.
func (f *FakeRunner) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
