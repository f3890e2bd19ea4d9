package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hostwatch/internal/discovery"
	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/index"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
	"github.com/MrSnakeDoc/hostwatch/internal/monitor"
	"github.com/MrSnakeDoc/hostwatch/internal/sysstats"
)

// Services discovers and looks up services on demand.
type Services interface {
	DiscoverAll(ctx context.Context) []domain.ServiceRecord
	GetService(ctx context.Context, id string) (domain.ServiceRecord, error)
	Providers() []discovery.Provider
}

// Ports reads the live port table.
type Ports interface {
	GetPortUsage(ctx context.Context) []domain.PortRecord
	FindFreePorts(ctx context.Context, start, end uint16, count int) []uint16
}

// PortScanner actively probes TCP ports.
type PortScanner interface {
	ScanRange(ctx context.Context, host string, start, end uint16) []domain.PortRecord
	ScanCommonPorts(ctx context.Context, host string) []domain.PortRecord
}

// SecurityScanner audits a service list.
type SecurityScanner interface {
	Scan(ctx context.Context, services []domain.ServiceRecord) domain.SecurityScanResult
}

// Monitor exposes the change monitor controls.
type Monitor interface {
	Settings() monitor.Settings
	SetSettings(s monitor.Settings) error
	Status() monitor.Status
}

// SystemStats takes a host resource snapshot.
type SystemStats interface {
	Collect(ctx context.Context) sysstats.Stats
}

// ScanCache keeps the last security scan result.
type ScanCache interface {
	CacheSecurityScan(ctx context.Context, result domain.SecurityScanResult, ttl time.Duration) error
	GetCachedSecurityScan(ctx context.Context) (domain.SecurityScanResult, bool, error)
}

// EventCounter reports how many events of each type were published.
type EventCounter interface {
	GetEventCounts(ctx context.Context) (map[string]int64, error)
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts      []string      // Host headers allowed to access the API
	AllowedCIDRS      []string      // networks allowed to access the API
	TrustProxy        bool          // true if running behind a trusted reverse proxy
	RequestTimeout    time.Duration // per-request timeout for regular routes
	ScanTimeout       time.Duration // per-request timeout for scan routes
	ScanRateBurst     int
	ScanRatePerMinute int
	SecurityScanTTL   time.Duration // how long a scan result stays cached (0 = off)

	Services    Services
	Ports       Ports
	Scanner     PortScanner
	Security    SecurityScanner
	Monitor     Monitor
	Stats       SystemStats
	MemoryIndex *index.MemoryIndex

	// Optional, nil when Redis is disabled
	RedisClient  *redis.Client
	ScanCache    ScanCache
	EventCounter EventCounter
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
