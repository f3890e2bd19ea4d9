package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/docker"
	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// DockerAPI is the subset of the Docker client the container provider uses.
type DockerAPI interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context) ([]docker.ContainerSummary, error)
	InspectContainer(ctx context.Context, id string) (docker.ContainerInspect, error)
}

type ContainerProvider struct {
	api    DockerAPI
	logger logger.Logger
}

func NewContainerProvider(api DockerAPI, log logger.Logger) *ContainerProvider {
	return &ContainerProvider{api: api, logger: log}
}

func (p *ContainerProvider) Name() string      { return "Docker" }
func (p *ContainerProvider) Kind() domain.Kind { return domain.KindContainer }

// Available pings the runtime with a short deadline.
func (p *ContainerProvider) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.api.Ping(ctx) == nil
}

// Discover lists running and stopped containers. The restart policy needs a
// per-container inspect; when that fails the container is kept with
// autostart off.
func (p *ContainerProvider) Discover(ctx context.Context) ([]domain.ServiceRecord, error) {
	containers, err := p.api.ListContainers(ctx)
	if err != nil {
		return nil, err
	}

	services := make([]domain.ServiceRecord, 0, len(containers))
	for _, c := range containers {
		if c.ID == "" {
			continue
		}
		policy := ""
		if info, err := p.api.InspectContainer(ctx, c.ID); err == nil {
			policy = info.HostConfig.RestartPolicy.Name
		} else {
			p.logger.Debug("container inspect failed",
				logger.String("container_id", c.ID),
				logger.Error(err))
		}
		services = append(services, MapContainer(c, policy))
	}
	return services, nil
}

func (p *ContainerProvider) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	return findByID(ctx, p, id)
}

// MapContainer converts a container summary into a record.
func MapContainer(c docker.ContainerSummary, restartPolicy string) domain.ServiceRecord {
	name := c.ID
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	ports := make([]uint16, 0, len(c.Ports))
	for _, p := range c.Ports {
		if p.PublicPort != 0 {
			ports = append(ports, p.PublicPort)
		}
	}

	return domain.ServiceRecord{
		ID:          c.ID,
		Name:        name,
		Kind:        domain.KindContainer,
		Status:      containerStatus(c.State),
		Ports:       domain.NormalizePorts(ports),
		Path:        c.Image,
		Description: c.Status,
		Autostart:   strings.Contains(restartPolicy, "always") || strings.Contains(restartPolicy, "unless"),
	}
}

func containerStatus(state string) domain.Status {
	state = strings.ToLower(state)
	switch {
	case strings.Contains(state, "running"):
		return domain.StatusRunning
	case strings.Contains(state, "exited"), strings.Contains(state, "dead"):
		return domain.StatusStopped
	default:
		return domain.StatusUnknown
	}
}
