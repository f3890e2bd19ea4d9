package discovery

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// showBatch bounds the unit names passed to one `systemctl show` call.
const showBatch = 100

type SystemdProvider struct {
	runner hostexec.Runner
	logger logger.Logger
	goos   string
}

func NewSystemdProvider(runner hostexec.Runner, log logger.Logger) *SystemdProvider {
	return &SystemdProvider{runner: runner, logger: log, goos: hostOS()}
}

func (p *SystemdProvider) Name() string      { return "systemd" }
func (p *SystemdProvider) Kind() domain.Kind { return domain.KindSystemd }

func (p *SystemdProvider) Available(_ context.Context) bool {
	return p.goos == "linux" && p.runner.LookPath("systemctl")
}

// Discover lists every service unit. Autostart and MainPID come from two
// extra calls; if either fails those fields stay unset.
func (p *SystemdProvider) Discover(ctx context.Context) ([]domain.ServiceRecord, error) {
	out, err := p.runner.Run(ctx, "systemctl",
		"list-units", "--type=service", "--all", "--no-pager", "--plain", "--no-legend")
	if err != nil {
		return nil, err
	}
	services := ParseSystemdUnits(string(out))

	if files, err := p.runner.Run(ctx, "systemctl",
		"list-unit-files", "--type=service", "--no-pager", "--plain", "--no-legend"); err == nil {
		enabled := ParseSystemdUnitFiles(string(files))
		for i := range services {
			services[i].Autostart = enabled[services[i].ID]
		}
	} else {
		p.logger.Debug("systemd unit files unavailable", logger.Error(err))
	}

	pids := p.mainPIDs(ctx, services)
	for i := range services {
		if pid, ok := pids[services[i].ID]; ok {
			services[i].PID = pid
		}
	}

	return services, nil
}

func (p *SystemdProvider) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	return findByID(ctx, p, id)
}

func (p *SystemdProvider) mainPIDs(ctx context.Context, services []domain.ServiceRecord) map[string]int {
	var running []string
	for _, s := range services {
		if s.IsRunning() {
			running = append(running, s.ID)
		}
	}

	pids := make(map[string]int, len(running))
	for start := 0; start < len(running); start += showBatch {
		end := min(start+showBatch, len(running))
		args := append([]string{"show", "-p", "Id", "-p", "MainPID"}, running[start:end]...)
		out, err := p.runner.Run(ctx, "systemctl", args...)
		if err != nil {
			p.logger.Debug("systemd main pids unavailable", logger.Error(err))
			return pids
		}
		for id, pid := range ParseSystemdShow(string(out)) {
			pids[id] = pid
		}
	}
	return pids
}

// ParseSystemdUnits parses `systemctl list-units --plain --no-legend` rows:
//
//	ssh.service  loaded active running OpenBSD Secure Shell server
func ParseSystemdUnits(out string) []domain.ServiceRecord {
	var services []domain.ServiceRecord

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Fields(sc.Text())
		if len(parts) > 0 && parts[0] == "●" {
			parts = parts[1:]
		}
		if len(parts) < 4 || !strings.HasSuffix(parts[0], ".service") {
			continue
		}

		services = append(services, domain.ServiceRecord{
			ID:          parts[0],
			Name:        strings.TrimSuffix(parts[0], ".service"),
			Kind:        domain.KindSystemd,
			Status:      systemdStatus(parts[3]),
			Ports:       []uint16{},
			Description: strings.Join(parts[4:], " "),
		})
	}
	return services
}

func systemdStatus(sub string) domain.Status {
	switch sub {
	case "running":
		return domain.StatusRunning
	case "exited", "dead", "inactive":
		return domain.StatusStopped
	case "failed":
		return domain.StatusError
	default:
		return domain.StatusUnknown
	}
}

// ParseSystemdUnitFiles returns unit name -> enabled from
// `systemctl list-unit-files --plain --no-legend`.
func ParseSystemdUnitFiles(out string) map[string]bool {
	enabled := make(map[string]bool)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Fields(sc.Text())
		if len(parts) < 2 || !strings.HasSuffix(parts[0], ".service") {
			continue
		}
		enabled[parts[0]] = parts[1] == "enabled" || parts[1] == "enabled-runtime"
	}
	return enabled
}

// ParseSystemdShow parses blank-line separated Key=Value blocks from
// `systemctl show -p Id -p MainPID …`. Units with MainPID=0 are omitted.
func ParseSystemdShow(out string) map[string]int {
	pids := make(map[string]int)

	var id string
	var pid int
	flush := func() {
		if id != "" && pid > 0 {
			pids[id] = pid
		}
		id, pid = "", 0
	}

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "Id":
			id = value
		case "MainPID":
			pid, _ = strconv.Atoi(value)
		}
	}
	flush()
	return pids
}
