package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// IncrementEventCount bumps the published-event counter for t
func (s *Store) IncrementEventCount(ctx context.Context, t domain.EventType) error {
	if err := s.client.HIncrBy(ctx, KeyEventCounts, string(t), 1).Err(); err != nil {
		return fmt.Errorf("failed to count event: %w", err)
	}
	return nil
}

// GetEventCounts returns how many events of each type were published
func (s *Store) GetEventCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, KeyEventCounts).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get event counts: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[k] = n
	}
	return counts, nil
}
