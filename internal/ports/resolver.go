// Package ports enumerates listening ports through the host's own tooling and
// actively probes TCP ports.
package ports

import (
	"context"
	"sort"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// command is one enumeration tool invocation and the parser for its output.
type command struct {
	name  string
	args  []string
	parse func(string) []domain.PortRecord
}

// Resolver lists listening ports with their owning process.
type Resolver struct {
	runner   hostexec.Runner
	logger   logger.Logger
	commands []command

	// native is tried when every command fails.
	native func(ctx context.Context) ([]domain.PortRecord, error)
}

// NewResolver builds a resolver using the enumeration commands of the
// current OS, tried in order until one succeeds.
func NewResolver(runner hostexec.Runner, log logger.Logger) *Resolver {
	return &Resolver{
		runner:   runner,
		logger:   log,
		commands: platformCommands(),
		native:   nativePortTable,
	}
}

// GetPortUsage returns the current port table. A missing tool, a failing
// tool or unparseable output all yield an empty list.
func (r *Resolver) GetPortUsage(ctx context.Context) []domain.PortRecord {
	for _, c := range r.commands {
		out, err := r.runner.Run(ctx, c.name, c.args...)
		if err != nil {
			r.logger.Debug("port enumeration tool unavailable",
				logger.String("tool", c.name),
				logger.Error(err))
			continue
		}
		records := c.parse(string(out))
		r.logger.Debug("port table fetched",
			logger.String("tool", c.name),
			logger.Int("records", len(records)))
		return records
	}

	if r.native != nil {
		records, err := r.native(ctx)
		if err == nil {
			r.logger.Debug("port table fetched",
				logger.String("tool", "native"),
				logger.Int("records", len(records)))
			return records
		}
		r.logger.Debug("native port enumeration failed", logger.Error(err))
	}
	return []domain.PortRecord{}
}

// FindFreePorts returns up to count ascending ports in [start,end] that are
// not in the current port table. The answer is a point-in-time snapshot:
// another process may bind a returned port before the caller does.
func (r *Resolver) FindFreePorts(ctx context.Context, start, end uint16, count int) []uint16 {
	return FreePorts(r.GetPortUsage(ctx), start, end, count)
}

// FreePorts is the pure part of FindFreePorts.
func FreePorts(records []domain.PortRecord, start, end uint16, count int) []uint16 {
	free := []uint16{}
	if count <= 0 || start > end {
		return free
	}

	occupied := domain.OpenPorts(records)
	for p := int(start); p <= int(end) && len(free) < count; p++ {
		if _, ok := occupied[uint16(p)]; !ok {
			free = append(free, uint16(p))
		}
	}
	return free
}

// SortByPort orders a port table by port then protocol, for stable output.
func SortByPort(records []domain.PortRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Port != records[j].Port {
			return records[i].Port < records[j].Port
		}
		return records[i].Protocol < records[j].Protocol
	})
}
