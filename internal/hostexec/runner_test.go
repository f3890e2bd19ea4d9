package hostexec

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), "hostwatch-definitely-missing-binary")
	if !errors.Is(err, domain.ErrToolUnavailable) {
		t.Fatalf("Run() error = %v, want ErrToolUnavailable", err)
	}
	if r.LookPath("hostwatch-definitely-missing-binary") {
		t.Error("LookPath() = true for a missing binary")
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the POSIX false utility")
	}

	_, err := NewExecRunner().Run(context.Background(), "false")
	if !errors.Is(err, domain.ErrToolUnavailable) {
		t.Fatalf("Run() error = %v, want ErrToolUnavailable", err)
	}
}

func TestFakeRunner(t *testing.T) {
	f := &FakeRunner{
		Outputs: map[string]string{"ss -tulnp": "fixture"},
		Missing: []string{"lsof"},
	}

	out, err := f.Run(context.Background(), "ss", "-tulnp")
	if err != nil || string(out) != "fixture" {
		t.Fatalf("Run() = %q, %v; want fixture, nil", out, err)
	}

	if _, err := f.Run(context.Background(), "netstat", "-tulpn"); !errors.Is(err, domain.ErrToolUnavailable) {
		t.Errorf("unknown command error = %v, want ErrToolUnavailable", err)
	}

	if f.LookPath("lsof") {
		t.Error("LookPath(lsof) = true, want false")
	}
	if got := f.CallCount("ss"); got != 1 {
		t.Errorf("CallCount(ss) = %d, want 1", got)
	}
}
