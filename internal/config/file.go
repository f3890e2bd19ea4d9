package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file. Unset keys keep the value
// already in Config.
//
//	listen: 127.0.0.1:7070
//	log:
//	  level: debug
//	monitor:
//	  interval: 10s
//	redis:
//	  addr: localhost:6379
//	  password: ${REDIS_PASSWORD}
type fileConfig struct {
	Listen          string `yaml:"listen"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	RequestTimeout  string `yaml:"request_timeout"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"log"`

	Monitor struct {
		Interval         string `yaml:"interval"`
		Enabled          *bool  `yaml:"enabled"`
		IncludeProcesses *bool  `yaml:"include_processes"`
		DockerSocket     string `yaml:"docker_socket"`
		GCInterval       string `yaml:"gc_interval"`
		GCThreshold      string `yaml:"gc_threshold"`
	} `yaml:"monitor"`

	Scan struct {
		Timeout        string `yaml:"timeout"`
		RequestTimeout string `yaml:"request_timeout"`
		MaxConcurrent  int    `yaml:"max_concurrent"`
		RateBurst      int    `yaml:"rate_burst"`
		RatePerMinute  int    `yaml:"rate_per_minute"`
		SecurityCache  string `yaml:"security_cache"`
	} `yaml:"scan"`

	Redis struct {
		Addr             string `yaml:"addr"`
		Username         string `yaml:"username"`
		Password         string `yaml:"password"`
		PasswordRequired *bool  `yaml:"password_required"`
		DB               *int   `yaml:"db"`
		Channel          string `yaml:"channel"`
	} `yaml:"redis"`

	Access struct {
		AllowedHosts []string `yaml:"allowed_hosts"`
		AllowedCIDRS []string `yaml:"allowed_cidrs"`
		TrustProxy   *bool    `yaml:"trust_proxy"`
	} `yaml:"access"`
}

// applyFile overlays the YAML file at path onto cfg. ${VAR} references in
// the file are expanded from the environment.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.ListenPort, fc.Listen)
	setString(&cfg.LogLevel, fc.Log.Level)
	setBool(&cfg.PrettyLog, fc.Log.Pretty)

	setBool(&cfg.MonitorEnabled, fc.Monitor.Enabled)
	setBool(&cfg.IncludeProcesses, fc.Monitor.IncludeProcesses)
	setString(&cfg.DockerSocket, fc.Monitor.DockerSocket)

	setInt(&cfg.ScanMaxConcurrent, fc.Scan.MaxConcurrent)
	setInt(&cfg.ScanRateBurst, fc.Scan.RateBurst)
	setInt(&cfg.ScanRatePerMinute, fc.Scan.RatePerMinute)

	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisUser, fc.Redis.Username)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	setBool(&cfg.RedisPasswordRequired, fc.Redis.PasswordRequired)
	if fc.Redis.DB != nil {
		cfg.RedisDB = *fc.Redis.DB
	}
	setString(&cfg.RedisChannel, fc.Redis.Channel)

	if len(fc.Access.AllowedHosts) > 0 {
		cfg.AllowedHosts = fc.Access.AllowedHosts
	}
	if len(fc.Access.AllowedCIDRS) > 0 {
		cfg.AllowedCIDRS = fc.Access.AllowedCIDRS
	}
	setBool(&cfg.TrustProxy, fc.Access.TrustProxy)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"shutdown_timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"request_timeout", fc.RequestTimeout, &cfg.RequestTimeout},
		{"monitor.interval", fc.Monitor.Interval, &cfg.MonitorInterval},
		{"monitor.gc_interval", fc.Monitor.GCInterval, &cfg.GCInterval},
		{"monitor.gc_threshold", fc.Monitor.GCThreshold, &cfg.GCThreshold},
		{"scan.timeout", fc.Scan.Timeout, &cfg.ProbeTimeout},
		{"scan.request_timeout", fc.Scan.RequestTimeout, &cfg.ScanTimeout},
		{"scan.security_cache", fc.Scan.SecurityCache, &cfg.SecurityScanCache},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", d.key, d.raw)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
