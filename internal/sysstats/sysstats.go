// Package sysstats samples host CPU, memory and load figures.
package sysstats

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// sampleWindow is the CPU measurement interval.
const sampleWindow = 100 * time.Millisecond

type CPUStats struct {
	UsagePercent float64   `json:"usage_percent"`
	CoreCount    int       `json:"core_count"`
	PerCoreUsage []float64 `json:"per_core_usage"`
	FrequencyMHz *float64  `json:"frequency_mhz,omitempty"`
	ModelName    string    `json:"model_name,omitempty"`
}

type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
	SwapTotalBytes uint64  `json:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"`
}

type LoadStats struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

type HostStats struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

type Stats struct {
	CPU       CPUStats    `json:"cpu"`
	Memory    MemoryStats `json:"memory"`
	Load      *LoadStats  `json:"load,omitempty"`
	Host      *HostStats  `json:"host,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Source reads the raw figures. The default implementation is gopsutil.
type Source interface {
	CPUPercent(ctx context.Context, window time.Duration, perCore bool) ([]float64, error)
	CPUInfo(ctx context.Context) ([]cpu.InfoStat, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
	LoadAvg(ctx context.Context) (*load.AvgStat, error)
	HostInfo(ctx context.Context) (*host.InfoStat, error)
}

type gopsutilSource struct{}

func (gopsutilSource) CPUPercent(ctx context.Context, window time.Duration, perCore bool) ([]float64, error) {
	return cpu.PercentWithContext(ctx, window, perCore)
}

func (gopsutilSource) CPUInfo(ctx context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(ctx)
}

func (gopsutilSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (gopsutilSource) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (gopsutilSource) LoadAvg(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (gopsutilSource) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

type Collector struct {
	source Source
	logger logger.Logger
	goos   string
	now    func() time.Time
}

func NewCollector(log logger.Logger) *Collector {
	return NewCollectorWithSource(gopsutilSource{}, log)
}

func NewCollectorWithSource(src Source, log logger.Logger) *Collector {
	return &Collector{source: src, logger: log, goos: runtime.GOOS, now: time.Now}
}

// Collect takes one sample. Figures that cannot be read are left zero or
// omitted; Collect itself does not fail.
func (c *Collector) Collect(ctx context.Context) Stats {
	stats := Stats{Timestamp: c.now().Unix()}

	// one sampling window yields both the per-core and the overall figure
	if perCore, err := c.source.CPUPercent(ctx, sampleWindow, true); err == nil {
		stats.CPU.PerCoreUsage = perCore
		stats.CPU.CoreCount = len(perCore)
		stats.CPU.UsagePercent = average(perCore)
	} else {
		c.logger.Debug("cpu usage unavailable", logger.Error(err))
		stats.CPU.PerCoreUsage = []float64{}
	}
	if stats.CPU.CoreCount == 0 {
		stats.CPU.CoreCount = runtime.NumCPU()
	}

	if infos, err := c.source.CPUInfo(ctx); err == nil && len(infos) > 0 {
		stats.CPU.ModelName = infos[0].ModelName
		if infos[0].Mhz > 0 {
			mhz := infos[0].Mhz
			stats.CPU.FrequencyMHz = &mhz
		}
	}

	if vm, err := c.source.VirtualMemory(ctx); err == nil {
		stats.Memory.TotalBytes = vm.Total
		stats.Memory.UsedBytes = vm.Used
		stats.Memory.AvailableBytes = vm.Available
		stats.Memory.UsagePercent = vm.UsedPercent
	} else {
		c.logger.Debug("memory stats unavailable", logger.Error(err))
	}
	if sw, err := c.source.SwapMemory(ctx); err == nil {
		stats.Memory.SwapTotalBytes = sw.Total
		stats.Memory.SwapUsedBytes = sw.Used
	}

	if c.goos != "windows" {
		if avg, err := c.source.LoadAvg(ctx); err == nil {
			stats.Load = &LoadStats{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
		}
	}

	if info, err := c.source.HostInfo(ctx); err == nil {
		stats.Host = &HostStats{
			Hostname:      info.Hostname,
			OS:            info.OS,
			Platform:      info.Platform,
			KernelVersion: info.KernelVersion,
			UptimeSeconds: info.Uptime,
		}
	}

	return stats
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
