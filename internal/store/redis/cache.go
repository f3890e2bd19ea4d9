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

const securityScanCache = "security-scan"

// CacheSecurityScan stores the latest security scan result
func (s *Store) CacheSecurityScan(ctx context.Context, result domain.SecurityScanResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}
	if err := s.client.Set(ctx, CacheKey(securityScanCache), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache scan result: %w", err)
	}
	return nil
}

// GetCachedSecurityScan retrieves the cached scan result. ok is false on a
// cache miss.
func (s *Store) GetCachedSecurityScan(ctx context.Context) (result domain.SecurityScanResult, ok bool, err error) {
	data, err := s.client.Get(ctx, CacheKey(securityScanCache)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return result, false, nil // Cache miss
		}
		return result, false, fmt.Errorf("failed to get cached scan result: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false, fmt.Errorf("failed to unmarshal scan result: %w", err)
	}
	return result, true, nil
}
