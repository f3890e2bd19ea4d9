package discovery

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const listUnitsFixture = `ssh.service                loaded active running OpenBSD Secure Shell server
● nginx.service            loaded failed failed  A high performance web server
cron.service               loaded active running Regular background program processing daemon
systemd-fsck-root.service  loaded active exited  File System Check on Root Device
bogus line
dev-sda1.device            loaded active plugged /dev/sda1
`

const listUnitFilesFixture = `ssh.service                enabled  enabled
nginx.service              disabled enabled
cron.service               enabled-runtime enabled
`

const showFixture = `Id=ssh.service
MainPID=812

Id=cron.service
MainPID=0
`

func TestParseSystemdUnits(t *testing.T) {
	got := ParseSystemdUnits(listUnitsFixture)
	if len(got) != 4 {
		t.Fatalf("ParseSystemdUnits() returned %d records, want 4", len(got))
	}

	tests := []struct {
		idx    int
		id     string
		name   string
		status domain.Status
	}{
		{0, "ssh.service", "ssh", domain.StatusRunning},
		{1, "nginx.service", "nginx", domain.StatusError},
		{2, "cron.service", "cron", domain.StatusRunning},
		{3, "systemd-fsck-root.service", "systemd-fsck-root", domain.StatusStopped},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s := got[tt.idx]
			if s.ID != tt.id || s.Name != tt.name || s.Status != tt.status {
				t.Errorf("record = {%q %q %q}, want {%q %q %q}", s.ID, s.Name, s.Status, tt.id, tt.name, tt.status)
			}
			if s.Kind != domain.KindSystemd {
				t.Errorf("Kind = %q, want %q", s.Kind, domain.KindSystemd)
			}
		})
	}

	if got[0].Description != "OpenBSD Secure Shell server" {
		t.Errorf("Description = %q", got[0].Description)
	}
}

func TestSystemdStatus(t *testing.T) {
	tests := map[string]domain.Status{
		"running":   domain.StatusRunning,
		"exited":    domain.StatusStopped,
		"dead":      domain.StatusStopped,
		"failed":    domain.StatusError,
		"reloading": domain.StatusUnknown,
	}
	for sub, want := range tests {
		if got := systemdStatus(sub); got != want {
			t.Errorf("systemdStatus(%q) = %q, want %q", sub, got, want)
		}
	}
}

func TestParseSystemdUnitFiles(t *testing.T) {
	got := ParseSystemdUnitFiles(listUnitFilesFixture)
	if !got["ssh.service"] || !got["cron.service"] {
		t.Errorf("expected ssh and cron enabled, got %v", got)
	}
	if got["nginx.service"] {
		t.Error("nginx.service should not be enabled")
	}
}

func TestParseSystemdShow(t *testing.T) {
	got := ParseSystemdShow(showFixture)
	if len(got) != 1 || got["ssh.service"] != 812 {
		t.Errorf("ParseSystemdShow() = %v, want map[ssh.service:812]", got)
	}
}

func TestSystemdDiscover(t *testing.T) {
	runner := &hostexec.FakeRunner{Outputs: map[string]string{
		"systemctl list-units --type=service --all --no-pager --plain --no-legend": listUnitsFixture,
		"systemctl list-unit-files --type=service --no-pager --plain --no-legend": listUnitFilesFixture,
		"systemctl show -p Id -p MainPID ssh.service cron.service":                showFixture,
	}}
	p := &SystemdProvider{runner: runner, logger: logger.NewNop(), goos: "linux"}

	got, err := p.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	ssh, ok := domain.FindService(got, "ssh.service")
	if !ok {
		t.Fatal("ssh.service not discovered")
	}
	if ssh.PID != 812 || !ssh.Autostart {
		t.Errorf("ssh.service PID=%d Autostart=%v, want 812 true", ssh.PID, ssh.Autostart)
	}

	cron, _ := domain.FindService(got, "cron.service")
	if cron.HasPID() {
		t.Errorf("cron.service PID = %d, want unset", cron.PID)
	}
}

func TestSystemdDiscoverWithoutUnitFiles(t *testing.T) {
	runner := &hostexec.FakeRunner{Outputs: map[string]string{
		"systemctl list-units --type=service --all --no-pager --plain --no-legend": listUnitsFixture,
	}}
	p := &SystemdProvider{runner: runner, logger: logger.NewNop(), goos: "linux"}

	got, err := p.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	for _, s := range got {
		if s.Autostart || s.HasPID() {
			t.Errorf("%s: Autostart=%v PID=%d, want defaults", s.ID, s.Autostart, s.PID)
		}
	}
}

func TestSystemdAvailable(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		missing  []string
		expected bool
	}{
		{name: "linux with systemctl", goos: "linux", expected: true},
		{name: "linux without systemctl", goos: "linux", missing: []string{"systemctl"}, expected: false},
		{name: "other os", goos: "darwin", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &SystemdProvider{
				runner: &hostexec.FakeRunner{Missing: tt.missing},
				logger: logger.NewNop(),
				goos:   tt.goos,
			}
			if got := p.Available(context.Background()); got != tt.expected {
				t.Errorf("Available() = %v, want %v", got, tt.expected)
			}
		})
	}
}
