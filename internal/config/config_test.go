package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      int
		expected int
	}{
		{
			name:     "valid integer",
			key:      "TEST_INT",
			value:    "42",
			def:      1,
			expected: 42,
		},
		{
			name:     "invalid integer uses default",
			key:      "TEST_INT_INVALID",
			value:    "not_a_number",
			def:      7,
			expected: 7,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_INT_MISSING",
			value:    "",
			def:      3,
			expected: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := getenvInt(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single value",
			input:    "value1",
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			input:    "value1, value2, value3",
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "quoted and empty parts",
			input:    `"10.0.0.0/8", ,'::1/128'`,
			expected: []string{"10.0.0.0/8", "::1/128"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOSTWATCH_CONFIG_FILE", "")

	cfg := Load()

	if cfg.ListenPort != "127.0.0.1:7070" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.MonitorInterval != 5*time.Second || !cfg.MonitorEnabled {
		t.Errorf("monitor = %v/%v, want 5s/true", cfg.MonitorInterval, cfg.MonitorEnabled)
	}
	if cfg.ProbeTimeout != 200*time.Millisecond || cfg.ScanMaxConcurrent != 100 {
		t.Errorf("scan = %v/%d", cfg.ProbeTimeout, cfg.ScanMaxConcurrent)
	}
	if cfg.IncludeProcesses {
		t.Error("IncludeProcesses should default to false")
	}
	if cfg.RedisEnabled() {
		t.Error("redis should be disabled without an address")
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("TEST_REDIS_SECRET", "s3cret")
	path := writeConfig(t, `
listen: 0.0.0.0:9000
log:
  level: warn
  pretty: false
monitor:
  interval: 30s
  enabled: false
  include_processes: true
scan:
  timeout: 1s
  max_concurrent: 20
redis:
  addr: localhost:6379
  password: ${TEST_REDIS_SECRET}
  db: 2
access:
  allowed_cidrs: ["10.0.0.0/8"]
  trust_proxy: true
`)
	t.Setenv("HOSTWATCH_CONFIG_FILE", path)

	cfg := Load()

	if cfg.ListenPort != "0.0.0.0:9000" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.LogLevel != "warn" || cfg.PrettyLog {
		t.Errorf("log = %q/%v", cfg.LogLevel, cfg.PrettyLog)
	}
	if cfg.MonitorInterval != 30*time.Second || cfg.MonitorEnabled || !cfg.IncludeProcesses {
		t.Errorf("monitor = %v/%v/%v", cfg.MonitorInterval, cfg.MonitorEnabled, cfg.IncludeProcesses)
	}
	if cfg.ProbeTimeout != time.Second || cfg.ScanMaxConcurrent != 20 {
		t.Errorf("scan = %v/%d", cfg.ProbeTimeout, cfg.ScanMaxConcurrent)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisPassword != "s3cret" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q/%q/%d", cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	if len(cfg.AllowedCIDRS) != 1 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" || !cfg.TrustProxy {
		t.Errorf("access = %v/%v", cfg.AllowedCIDRS, cfg.TrustProxy)
	}
	// untouched keys keep their defaults
	if cfg.RedisChannel != "hostwatch:events" {
		t.Errorf("RedisChannel = %q", cfg.RedisChannel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "monitor:\n  interval: 30s\nlisten: 0.0.0.0:9000\n")
	t.Setenv("HOSTWATCH_CONFIG_FILE", path)
	t.Setenv("HOSTWATCH_MONITOR_INTERVAL", "2s")
	t.Setenv("HOSTWATCH_ALLOWED_CIDRS", "192.168.0.0/16, 127.0.0.1/32")

	cfg := Load()

	if cfg.MonitorInterval != 2*time.Second {
		t.Errorf("MonitorInterval = %v, want env value 2s", cfg.MonitorInterval)
	}
	if cfg.ListenPort != "0.0.0.0:9000" {
		t.Errorf("ListenPort = %q, want file value", cfg.ListenPort)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[0] != "192.168.0.0/16" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		env   map[string]string
		setup bool
	}{
		{
			name:  "malformed yaml",
			file:  "monitor: [unterminated",
			setup: true,
		},
		{
			name:  "bad duration in file",
			file:  "monitor:\n  interval: soon\n",
			setup: true,
		},
		{
			name: "interval below minimum",
			env:  map[string]string{"HOSTWATCH_MONITOR_INTERVAL": "500ms"},
		},
		{
			name: "missing redis password",
			env: map[string]string{
				"HOSTWATCH_REDIS_ADDR":              "localhost:6379",
				"HOSTWATCH_REDIS_PASSWORD_REQUIRED": "true",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOSTWATCH_CONFIG_FILE", "")
			if tt.setup {
				t.Setenv("HOSTWATCH_CONFIG_FILE", writeConfig(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestMissingConfigFilePanics(t *testing.T) {
	t.Setenv("HOSTWATCH_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
}

func TestRedacted(t *testing.T) {
	cfg := defaults()
	cfg.RedisPassword = "hunter2"

	red := cfg.Redacted()
	if red.RedisPassword == "hunter2" || red.RedisUser == "default" {
		t.Errorf("credentials not redacted: %+v", red)
	}
	if cfg.RedisPassword != "hunter2" {
		t.Error("Redacted() must not modify the receiver")
	}
}
