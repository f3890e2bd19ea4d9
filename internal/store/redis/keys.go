package redis

import "fmt"

const (
	// KeyPrefixService is the prefix for service keys
	KeyPrefixService = "hostwatch:service:"
	// KeyPrefixCache is the prefix for cache keys
	KeyPrefixCache = "hostwatch:cache:"
	// KeyAllServices is the key for the set of all service IDs
	KeyAllServices = "hostwatch:services:all"
	// KeyEventCounts is the hash of event type -> published count
	KeyEventCounts = "hostwatch:events:counts"

	// DefaultChannel is the pub/sub channel events are published on
	DefaultChannel = "hostwatch:events"
)

// ServiceKey returns the Redis key for a service by ID
func ServiceKey(id string) string {
	return KeyPrefixService + id
}

// CacheKey returns the Redis key for a cached value
func CacheKey(name string) string {
	return KeyPrefixCache + name
}

// AllServicesKey returns the key for the set of all service IDs
func AllServicesKey() string {
	return KeyAllServices
}

// ExtractServiceID extracts the service ID from a Redis key
func ExtractServiceID(key string) (string, error) {
	if len(key) <= len(KeyPrefixService) || key[:len(KeyPrefixService)] != KeyPrefixService {
		return "", fmt.Errorf("invalid service key: %s", key)
	}
	return key[len(KeyPrefixService):], nil
}
