// Package hostexec runs the host's introspection commands (ss, lsof,
// systemctl, launchctl, powershell, ps).
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// Runner executes an external command and returns its standard output.
//
// A missing binary or a non-zero exit status is reported as an error
// wrapping domain.ErrToolUnavailable; callers treat it as "no data".
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) bool
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct{}

func NewExecRunner() ExecRunner { return ExecRunner{} }

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrToolUnavailable)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with %d (%s): %w",
				name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()), domain.ErrToolUnavailable)
		}
		return nil, fmt.Errorf("%s: %v: %w", name, err, domain.ErrToolUnavailable)
	}

	return stdout.Bytes(), nil
}

func (ExecRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// CommandLine renders a command the way FakeRunner keys it.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
