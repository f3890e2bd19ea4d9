// Package aggregator merges the providers' results and the port table into
// one bounded, ordered service snapshot.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/discovery"
	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// PortTable is the port enumeration the aggregator correlates against.
type PortTable interface {
	GetPortUsage(ctx context.Context) []domain.PortRecord
}

// NameLookup resolves the name of a live process.
type NameLookup interface {
	LookupName(ctx context.Context, pid int) (string, bool)
}

type Options struct {
	Container discovery.Provider
	Platform  discovery.Provider
	Process   discovery.Provider

	// IncludeProcesses merges every OS process into the snapshot. Off by
	// default: only port-owning processes are surfaced, as residuals.
	IncludeProcesses bool

	Names NameLookup
}

type Aggregator struct {
	mu     sync.Mutex
	ports  PortTable
	opts   Options
	logger logger.Logger
}

func New(ports PortTable, opts Options, log logger.Logger) *Aggregator {
	return &Aggregator{ports: ports, opts: opts, logger: log}
}

// Providers lists the configured providers, for status reporting.
func (a *Aggregator) Providers() []discovery.Provider {
	var out []discovery.Provider
	for _, p := range []discovery.Provider{a.opts.Container, a.opts.Platform, a.opts.Process} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// DiscoverAll runs one full discovery round. Runs are serialized; a
// provider that fails or is unavailable contributes nothing.
func (a *Aggregator) DiscoverAll(ctx context.Context) []domain.ServiceRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	table := a.ports.GetPortUsage(ctx)

	var (
		wg  sync.WaitGroup
		src Sources
	)
	collect := func(p discovery.Provider, dst *[]domain.ServiceRecord) {
		if p == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = a.discover(ctx, p)
		}()
	}

	collect(a.opts.Container, &src.Containers)
	collect(a.opts.Platform, &src.Platform)
	if a.opts.IncludeProcesses {
		collect(a.opts.Process, &src.Processes)
	}
	wg.Wait()

	services := Merge(table, src, a.lookupFunc(ctx))

	a.logger.Debug("discovery round complete",
		logger.Int("services", len(services)),
		logger.Int("ports", len(table)),
		logger.Duration("took", time.Since(start)))

	return services
}

// GetService runs a discovery round and returns the record with id.
func (a *Aggregator) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	if s, ok := domain.FindService(a.DiscoverAll(ctx), id); ok {
		return s, nil
	}
	return domain.ServiceRecord{}, fmt.Errorf("service %q: %w", id, domain.ErrTargetNotFound)
}

func (a *Aggregator) discover(ctx context.Context, p discovery.Provider) []domain.ServiceRecord {
	if !p.Available(ctx) {
		a.logger.Debug("provider unavailable", logger.String("provider", p.Name()))
		return nil
	}
	services, err := p.Discover(ctx)
	if err != nil {
		a.logger.Warn("provider discovery failed",
			logger.String("provider", p.Name()),
			logger.Error(err))
		return nil
	}
	return services
}

func (a *Aggregator) lookupFunc(ctx context.Context) NameFunc {
	if a.opts.Names == nil {
		return nil
	}
	return func(pid int) (string, bool) {
		return a.opts.Names.LookupName(ctx, pid)
	}
}
