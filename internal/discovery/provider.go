// Package discovery enumerates services from one source each: the OS process
// table, the container runtime and the native service manager.
package discovery

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// Provider enumerates the services native to one source.
//
// Discover skips malformed entries rather than failing; an error means the
// whole source could not be read.
type Provider interface {
	Name() string
	Kind() domain.Kind
	Available(ctx context.Context) bool
	Discover(ctx context.Context) ([]domain.ServiceRecord, error)
	GetService(ctx context.Context, id string) (domain.ServiceRecord, error)
}

// findByID implements GetService on top of Discover.
func findByID(ctx context.Context, p Provider, id string) (domain.ServiceRecord, error) {
	services, err := p.Discover(ctx)
	if err != nil {
		return domain.ServiceRecord{}, err
	}
	if s, ok := domain.FindService(services, id); ok {
		return s, nil
	}
	return domain.ServiceRecord{}, fmt.Errorf("%s service %q: %w", p.Name(), id, domain.ErrTargetNotFound)
}
