package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hostwatch/internal/config"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    10 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectOptions)
		wantErr bool
	}{
		{"valid", func(*ConnectOptions) {}, false},
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }, true},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }, true},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }, true},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }, true},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }, true},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			if err := opts.validate(); (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextWait(t *testing.T) {
	tests := []struct {
		current, max, want time.Duration
	}{
		{time.Second, 10 * time.Second, 2 * time.Second},
		{4 * time.Second, 10 * time.Second, 8 * time.Second},
		{8 * time.Second, 10 * time.Second, 10 * time.Second},
		{10 * time.Second, 10 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := nextWait(tt.current, tt.max); got != tt.want {
			t.Errorf("nextWait(%v, %v) = %v, want %v", tt.current, tt.max, got, tt.want)
		}
	}
}

func TestPingUntilReadyRetries(t *testing.T) {
	calls := 0
	ping := func(ctx context.Context) *redis.StatusCmd {
		calls++
		if calls < 3 {
			return redis.NewStatusResult("", errors.New("connection refused"))
		}
		return redis.NewStatusResult("PONG", nil)
	}

	if err := pingUntilReady(context.Background(), ping, validOptions(), logger.NewNop()); err != nil {
		t.Fatalf("pingUntilReady() = %v", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestPingUntilReadyTimesOut(t *testing.T) {
	down := errors.New("connection refused")
	ping := func(ctx context.Context) *redis.StatusCmd {
		return redis.NewStatusResult("", down)
	}

	opts := validOptions()
	opts.ConnectTimeout = 30 * time.Millisecond
	err := pingUntilReady(context.Background(), ping, opts, logger.NewNop())
	if !errors.Is(err, down) {
		t.Errorf("pingUntilReady() = %v, want wrapped %v", err, down)
	}
}

func TestPingUntilReadyHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ping := func(ctx context.Context) *redis.StatusCmd {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	opts := validOptions()
	opts.ConnectTimeout = time.Minute

	start := time.Now()
	if err := pingUntilReady(ctx, ping, opts, logger.NewNop()); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Error("pingUntilReady ignored cancellation")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		RedisAddr:           "cache:6379",
		RedisDB:             3,
		RedisConnectTimeout: time.Second,
		RedisPoolSize:       7,
	}
	opts := OptionsFromConfig(cfg)
	if opts.Addr != "cache:6379" || opts.DB != 3 || opts.ConnectTimeout != time.Second || opts.PoolSize != 7 {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
}
