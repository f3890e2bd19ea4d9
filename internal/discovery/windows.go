package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const getServiceScript = "Get-Service | Select-Object Name,Status,DisplayName,StartType | ConvertTo-Json"

type WindowsServiceProvider struct {
	runner hostexec.Runner
	logger logger.Logger
	goos   string
}

func NewWindowsServiceProvider(runner hostexec.Runner, log logger.Logger) *WindowsServiceProvider {
	return &WindowsServiceProvider{runner: runner, logger: log, goos: hostOS()}
}

func (p *WindowsServiceProvider) Name() string      { return "Windows Services" }
func (p *WindowsServiceProvider) Kind() domain.Kind { return domain.KindWindowsService }

func (p *WindowsServiceProvider) Available(_ context.Context) bool {
	return p.goos == "windows" && p.runner.LookPath("powershell")
}

func (p *WindowsServiceProvider) Discover(ctx context.Context) ([]domain.ServiceRecord, error) {
	out, err := p.runner.Run(ctx, "powershell", "-NoProfile", "-Command", getServiceScript)
	if err != nil {
		return nil, err
	}
	services, err := ParseWindowsServices(out)
	if err != nil {
		p.logger.Debug("unexpected Get-Service output", logger.Error(err))
		return []domain.ServiceRecord{}, nil
	}
	return services, nil
}

func (p *WindowsServiceProvider) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	return findByID(ctx, p, id)
}

type winService struct {
	Name        string          `json:"Name"`
	DisplayName string          `json:"DisplayName"`
	Status      json.RawMessage `json:"Status"`
	StartType   json.RawMessage `json:"StartType"`
}

// ParseWindowsServices decodes ConvertTo-Json output of Get-Service. PowerShell
// emits a bare object for a single service and enums either as numbers or,
// with -EnumsAsStrings, as names.
func ParseWindowsServices(out []byte) ([]domain.ServiceRecord, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return []domain.ServiceRecord{}, nil
	}

	var entries []winService
	if out[0] == '{' {
		var one winService
		if err := json.Unmarshal(out, &one); err != nil {
			return nil, &domain.ParseError{Source: "powershell", Reason: err.Error()}
		}
		entries = []winService{one}
	} else if err := json.Unmarshal(out, &entries); err != nil {
		return nil, &domain.ParseError{Source: "powershell", Reason: err.Error()}
	}

	services := make([]domain.ServiceRecord, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		name := e.DisplayName
		if name == "" {
			name = e.Name
		}
		services = append(services, domain.ServiceRecord{
			ID:        e.Name,
			Name:      name,
			Kind:      domain.KindWindowsService,
			Status:    windowsStatus(enumValue(e.Status)),
			Ports:     []uint16{},
			Autostart: isAutomatic(enumValue(e.StartType)),
		})
	}
	return services, nil
}

// enumValue returns a PowerShell enum as its lowercase name or its number.
func enumValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.ToLower(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}

func windowsStatus(v string) domain.Status {
	switch v {
	case "4", "running":
		return domain.StatusRunning
	case "1", "stopped":
		return domain.StatusStopped
	default:
		return domain.StatusUnknown
	}
}

func isAutomatic(v string) bool {
	return v == "2" || v == "automatic"
}
