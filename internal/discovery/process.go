package discovery

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// ProcInfo is the per-process data the provider maps into a record.
type ProcInfo struct {
	PID     int
	Name    string
	Exe     string
	Cmdline string
	RSS     uint64
	CPU     float64
	Status  []string
}

// ProcessSource reads the OS process table.
type ProcessSource interface {
	Processes(ctx context.Context) ([]ProcInfo, error)
	TotalMemory(ctx context.Context) (uint64, error)
	Name(ctx context.Context, pid int) (string, error)
}

// gopsutilSource is the ProcessSource backed by gopsutil.
type gopsutilSource struct{}

func (gopsutilSource) Processes(ctx context.Context) ([]ProcInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]ProcInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			// vanished or not readable
			continue
		}
		info := ProcInfo{PID: int(p.Pid), Name: name}
		info.Exe, _ = p.ExeWithContext(ctx)
		info.Cmdline, _ = p.CmdlineWithContext(ctx)
		if m, err := p.MemoryInfoWithContext(ctx); err == nil && m != nil {
			info.RSS = m.RSS
		}
		info.CPU, _ = p.CPUPercentWithContext(ctx)
		info.Status, _ = p.StatusWithContext(ctx)
		out = append(out, info)
	}
	return out, nil
}

func (gopsutilSource) TotalMemory(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

func (gopsutilSource) Name(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", fmt.Errorf("pid %d: %w", pid, domain.ErrTargetNotFound)
	}
	return p.NameWithContext(ctx)
}

// ProcessProvider reports one record per OS process.
type ProcessProvider struct {
	source ProcessSource
	logger logger.Logger
}

func NewProcessProvider(log logger.Logger) *ProcessProvider {
	return NewProcessProviderWithSource(gopsutilSource{}, log)
}

func NewProcessProviderWithSource(src ProcessSource, log logger.Logger) *ProcessProvider {
	return &ProcessProvider{source: src, logger: log}
}

func (p *ProcessProvider) Name() string                     { return "Process" }
func (p *ProcessProvider) Kind() domain.Kind                { return domain.KindProcess }
func (p *ProcessProvider) Available(_ context.Context) bool { return true }

func (p *ProcessProvider) Discover(ctx context.Context) ([]domain.ServiceRecord, error) {
	procs, err := p.source.Processes(ctx)
	if err != nil {
		return nil, err
	}

	total, err := p.source.TotalMemory(ctx)
	if err != nil {
		p.logger.Debug("total memory unavailable", logger.Error(err))
	}

	services := make([]domain.ServiceRecord, 0, len(procs))
	for _, info := range procs {
		services = append(services, MapProcess(info, total))
	}
	return services, nil
}

func (p *ProcessProvider) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	return findByID(ctx, p, id)
}

// LookupName returns the name of a running process. It satisfies the
// aggregator's name lookup for port owners the port table left unnamed.
func (p *ProcessProvider) LookupName(ctx context.Context, pid int) (string, bool) {
	name, err := p.source.Name(ctx, pid)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// MapProcess converts process data into a record. totalMemory of 0 leaves
// MemoryPercent unset.
func MapProcess(info ProcInfo, totalMemory uint64) domain.ServiceRecord {
	rss := info.RSS
	cpu := info.CPU

	rec := domain.ServiceRecord{
		ID:          strconv.Itoa(info.PID),
		Name:        info.Name,
		Kind:        domain.KindProcess,
		Status:      processStatus(info.Status),
		Ports:       []uint16{},
		PID:         info.PID,
		Path:        info.Exe,
		Description: info.Cmdline,
		CPUPercent:  &cpu,
		MemoryBytes: &rss,
	}
	if totalMemory > 0 {
		pct := float64(rss) / float64(totalMemory) * 100
		rec.MemoryPercent = &pct
	}
	return rec
}

func processStatus(states []string) domain.Status {
	if len(states) == 0 {
		return domain.StatusUnknown
	}
	switch states[0] {
	case "running", "sleep", "idle", "wait", "lock", "blocked":
		return domain.StatusRunning
	case "stop", "zombie":
		return domain.StatusStopped
	default:
		return domain.StatusUnknown
	}
}
