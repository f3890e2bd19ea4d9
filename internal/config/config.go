package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: "127.0.0.1:7070"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout for regular routes
	ScanTimeout     time.Duration // per-request timeout for scan routes

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Discovery and monitoring
	MonitorInterval  time.Duration // delay between discovery rounds (default: 5s)
	MonitorEnabled   bool          // false => loop ticks without discovering
	IncludeProcesses bool          // merge every OS process, not only port owners
	DockerSocket     string        // path to the Docker daemon socket
	GCInterval       time.Duration // interval to purge removed services (default: 1h)
	GCThreshold      time.Duration // removed services older than this are purged (default: 24h)

	// Port scanning
	ProbeTimeout       time.Duration // per-port TCP connect timeout (default: 200ms)
	ScanMaxConcurrent  int           // max in-flight probes (default: 100)
	ScanRateBurst      int           // scan requests allowed in a burst per client
	ScanRatePerMinute  int           // sustained scan requests per client
	SecurityScanCache  time.Duration // how long a security scan result is cached in redis (0 = off)

	// Redis (optional: empty RedisAddr disables it)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisChannel          string        // pub/sub channel for events
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // restrict API access to these networks (default: loopback only)
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func defaults() *Config {
	return &Config{
		ListenPort:      "127.0.0.1:7070",
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  10 * time.Second,
		ScanTimeout:     2 * time.Minute,

		LogLevel:  "info",
		PrettyLog: true,

		MonitorInterval:  5 * time.Second,
		MonitorEnabled:   true,
		IncludeProcesses: false,
		DockerSocket:     "/var/run/docker.sock",
		GCInterval:       time.Hour,
		GCThreshold:      24 * time.Hour,

		ProbeTimeout:      200 * time.Millisecond,
		ScanMaxConcurrent: 100,
		ScanRateBurst:     5,
		ScanRatePerMinute: 10,
		SecurityScanCache: 10 * time.Minute,

		RedisUser:           "default",
		RedisChannel:        "hostwatch:events",
		RedisDT:             5 * time.Second,
		RedisRT:             3 * time.Second,
		RedisWT:             3 * time.Second,
		RedisMaxWait:        10 * time.Second,
		RedisPingTimeout:    5 * time.Second,
		RedisPoolSize:       10,
		RedisConnectTimeout: 30 * time.Second,
		RedisRetryInterval:  2 * time.Second,
		RedisWarnThreshold:  3,

		AllowedCIDRS: []string{"127.0.0.1/32", "::1/128"},
	}
}

// Load resolves the configuration: defaults, then the YAML file named by
// HOSTWATCH_CONFIG_FILE, then environment variables. Invalid settings panic.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("HOSTWATCH_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func applyEnv(cfg *Config) {
	// Server settings
	cfg.ListenPort = getenv("HOSTWATCH_LISTEN_PORT", cfg.ListenPort)
	cfg.ShutdownTimeout = mustDuration("HOSTWATCH_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.RequestTimeout = mustDuration("HOSTWATCH_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ScanTimeout = mustDuration("HOSTWATCH_SCAN_REQUEST_TIMEOUT", cfg.ScanTimeout)

	// Logging
	cfg.LogLevel = getenv("HOSTWATCH_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("HOSTWATCH_PRETTY_LOG", cfg.PrettyLog)

	// Discovery and monitoring
	cfg.MonitorInterval = mustDuration("HOSTWATCH_MONITOR_INTERVAL", cfg.MonitorInterval)
	cfg.MonitorEnabled = mustBool("HOSTWATCH_MONITOR_ENABLED", cfg.MonitorEnabled)
	cfg.IncludeProcesses = mustBool("HOSTWATCH_INCLUDE_PROCESSES", cfg.IncludeProcesses)
	cfg.DockerSocket = getenv("HOSTWATCH_DOCKER_SOCKET", cfg.DockerSocket)
	cfg.GCInterval = mustDuration("HOSTWATCH_GC_INTERVAL", cfg.GCInterval)
	cfg.GCThreshold = mustDuration("HOSTWATCH_GC_THRESHOLD", cfg.GCThreshold)

	// Port scanning
	cfg.ProbeTimeout = mustDuration("HOSTWATCH_SCAN_TIMEOUT", cfg.ProbeTimeout)
	cfg.ScanMaxConcurrent = getenvInt("HOSTWATCH_SCAN_MAX_CONCURRENT", cfg.ScanMaxConcurrent)
	cfg.ScanRateBurst = getenvInt("HOSTWATCH_SCAN_RATE_BURST", cfg.ScanRateBurst)
	cfg.ScanRatePerMinute = getenvInt("HOSTWATCH_SCAN_RATE_PER_MIN", cfg.ScanRatePerMinute)
	cfg.SecurityScanCache = mustDuration("HOSTWATCH_SECURITY_SCAN_CACHE", cfg.SecurityScanCache)

	// Redis settings
	cfg.RedisAddr = getenv("HOSTWATCH_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisUser = getenv("HOSTWATCH_REDIS_USERNAME", cfg.RedisUser)
	cfg.RedisPasswordRequired = mustBool("HOSTWATCH_REDIS_PASSWORD_REQUIRED", cfg.RedisPasswordRequired)
	cfg.RedisPassword = getenv("HOSTWATCH_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("HOSTWATCH_REDIS_DB", cfg.RedisDB)
	cfg.RedisChannel = getenv("HOSTWATCH_REDIS_CHANNEL", cfg.RedisChannel)
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", cfg.RedisDT)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", cfg.RedisRT)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", cfg.RedisWT)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", cfg.RedisMaxWait)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", cfg.RedisPingTimeout)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", cfg.RedisPoolSize)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", cfg.RedisConnectTimeout)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", cfg.RedisRetryInterval)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", cfg.RedisWarnThreshold)

	// Access restrictions
	if hosts := os.Getenv("HOSTWATCH_ALLOWED_HOSTS"); hosts != "" {
		cfg.AllowedHosts = splitAndTrim(hosts)
	}
	if cidrs := os.Getenv("HOSTWATCH_ALLOWED_CIDRS"); cidrs != "" {
		cfg.AllowedCIDRS = parseAllowedIPs(cidrs)
	}
	cfg.TrustProxy = mustBool("HOSTWATCH_TRUST_PROXY", cfg.TrustProxy)
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ListenPort == "":
		return fmt.Errorf("HOSTWATCH_LISTEN_PORT must not be empty")
	case c.MonitorInterval < time.Second:
		return fmt.Errorf("HOSTWATCH_MONITOR_INTERVAL must be at least 1s, got %v", c.MonitorInterval)
	case c.ProbeTimeout <= 0:
		return fmt.Errorf("HOSTWATCH_SCAN_TIMEOUT must be > 0, got %v", c.ProbeTimeout)
	case c.ScanMaxConcurrent <= 0:
		return fmt.Errorf("HOSTWATCH_SCAN_MAX_CONCURRENT must be > 0, got %d", c.ScanMaxConcurrent)
	case c.ScanRateBurst <= 0 || c.ScanRatePerMinute <= 0:
		return fmt.Errorf("scan rate limits must be > 0")
	case len(c.AllowedCIDRS) == 0:
		return fmt.Errorf("HOSTWATCH_ALLOWED_CIDRS must list at least one network")
	}
	// Validate Redis password configuration
	if c.RedisEnabled() && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("HOSTWATCH_REDIS_PASSWORD is required when HOSTWATCH_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
