package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

const (
	// DefaultServiceTTL bounds how long a service outlives the last write
	DefaultServiceTTL = 48 * time.Hour
	// DefaultCacheTTL is the default TTL for cached results
	DefaultCacheTTL = 10 * time.Minute
)

// Store keeps the latest known state of each service in Redis: one JSON
// value per service plus a set of all ids.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultServiceTTL,
	}
}

// SaveService stores a service in Redis
func (s *Store) SaveService(ctx context.Context, service domain.ServiceRecord) error {
	data, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("failed to marshal service: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ServiceKey(service.ID), data, s.ttl)
	pipe.SAdd(ctx, AllServicesKey(), service.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save service: %w", err)
	}
	return nil
}

// GetService retrieves a service from Redis by ID
func (s *Store) GetService(ctx context.Context, id string) (domain.ServiceRecord, error) {
	data, err := s.client.Get(ctx, ServiceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ServiceRecord{}, fmt.Errorf("service %s: %w", id, domain.ErrTargetNotFound)
		}
		return domain.ServiceRecord{}, fmt.Errorf("failed to get service: %w", err)
	}

	var service domain.ServiceRecord
	if err := json.Unmarshal(data, &service); err != nil {
		return domain.ServiceRecord{}, fmt.Errorf("failed to unmarshal service: %w", err)
	}
	return service, nil
}

// GetAllServices retrieves all stored services. Ids whose value expired are
// skipped.
func (s *Store) GetAllServices(ctx context.Context) ([]domain.ServiceRecord, error) {
	ids, err := s.ServiceIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.ServiceRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ServiceKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}

	services := make([]domain.ServiceRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var service domain.ServiceRecord
		if err := json.Unmarshal([]byte(raw), &service); err != nil {
			continue
		}
		services = append(services, service)
	}
	return services, nil
}

// ServiceIDs returns the members of the id set.
func (s *Store) ServiceIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, AllServicesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get service IDs: %w", err)
	}
	return ids, nil
}

// DeleteService removes a service from Redis
func (s *Store) DeleteService(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ServiceKey(id))
	pipe.SRem(ctx, AllServicesKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

// SaveServicesMany stores multiple services in Redis (bulk operation)
func (s *Store) SaveServicesMany(ctx context.Context, services []domain.ServiceRecord) error {
	if len(services) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()

	for _, service := range services {
		data, err := json.Marshal(service)
		if err != nil {
			return fmt.Errorf("failed to marshal service %s: %w", service.ID, err)
		}
		pipe.Set(ctx, ServiceKey(service.ID), data, s.ttl)
		pipe.SAdd(ctx, AllServicesKey(), service.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save services: %w", err)
	}
	return nil
}

// PruneExpired drops ids from the id set whose value has expired and
// returns how many were removed.
func (s *Store) PruneExpired(ctx context.Context) (int, error) {
	ids, err := s.ServiceIDs(ctx)
	if err != nil {
		return 0, err
	}

	pipe := s.client.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, ServiceKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("failed to check service keys: %w", err)
		}
	}

	var stale []any
	for i, cmd := range exists {
		if cmd.Val() == 0 {
			stale = append(stale, ids[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.client.SRem(ctx, AllServicesKey(), stale...).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune service IDs: %w", err)
	}
	return len(stale), nil
}

// Publish applies a monitor event to the stored state, making the store a
// monitor sink.
func (s *Store) Publish(ctx context.Context, ev domain.Event) error {
	switch ev.Type {
	case domain.EventAllDiscovered:
		return s.SaveServicesMany(ctx, ev.Services)
	case domain.EventAdded:
		return s.SaveService(ctx, ev.Service)
	case domain.EventRemoved:
		return s.DeleteService(ctx, ev.ServiceID)
	case domain.EventStatusChanged, domain.EventPortsChanged:
		service, err := s.GetService(ctx, ev.ServiceID)
		if err != nil {
			return err
		}
		if ev.Type == domain.EventStatusChanged {
			service.Status = ev.NewStatus
		} else {
			service = service.WithPorts(ev.Ports)
		}
		return s.SaveService(ctx, service)
	}
	return nil
}
