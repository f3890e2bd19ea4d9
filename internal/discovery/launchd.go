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

type LaunchdProvider struct {
	runner hostexec.Runner
	logger logger.Logger
	goos   string
}

func NewLaunchdProvider(runner hostexec.Runner, log logger.Logger) *LaunchdProvider {
	return &LaunchdProvider{runner: runner, logger: log, goos: hostOS()}
}

func (p *LaunchdProvider) Name() string      { return "launchd" }
func (p *LaunchdProvider) Kind() domain.Kind { return domain.KindLaunchd }

func (p *LaunchdProvider) Available(_ context.Context) bool {
	return p.goos == "darwin" && p.runner.LookPath("launchctl")
}

func (p *LaunchdProvider) Discover(ctx context.Context) ([]domain.ServiceRecord, error) {
	out, err := p.runner.Run(ctx, "launchctl", "list")
	if err != nil {
		return nil, err
	}
	return ParseLaunchctlList(string(out)), nil
}

func (p *LaunchdProvider) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	return findByID(ctx, p, id)
}

// ParseLaunchctlList parses `launchctl list`:
//
//	PID	Status	Label
//	412	0	com.apple.Finder
//	-	0	com.example.agent
//
// Every job is loaded by launchd, so autostart is reported true.
func ParseLaunchctlList(out string) []domain.ServiceRecord {
	var services []domain.ServiceRecord

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Fields(sc.Text())
		if len(parts) < 3 || parts[0] == "PID" {
			continue
		}
		label := strings.Join(parts[2:], " ")

		rec := domain.ServiceRecord{
			ID:        label,
			Name:      label,
			Kind:      domain.KindLaunchd,
			Status:    domain.StatusStopped,
			Ports:     []uint16{},
			Autostart: true,
		}
		if pid, err := strconv.Atoi(parts[0]); err == nil && pid > 0 {
			rec.Status = domain.StatusRunning
			rec.PID = pid
		}
		services = append(services, rec)
	}
	return services
}
