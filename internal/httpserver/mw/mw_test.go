package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remote     string
		xff        string
		trustProxy bool
		want       int
	}{
		{"loopback allowed", []string{"127.0.0.1/32"}, "127.0.0.1:5000", "", false, http.StatusOK},
		{"outsider rejected", []string{"127.0.0.1/32"}, "192.168.1.10:5000", "", false, http.StatusForbidden},
		{"forwarded ignored without trust", []string{"10.0.0.0/8"}, "192.168.1.10:5000", "10.1.1.1", false, http.StatusForbidden},
		{"forwarded honoured with trust", []string{"10.0.0.0/8"}, "127.0.0.1:5000", "10.1.1.1", true, http.StatusOK},
		{"empty list passthrough", nil, "8.8.8.8:5000", "", false, http.StatusOK},
		{"unparseable remote rejected", []string{"127.0.0.1/32"}, "garbage", "", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.NewNop())(okHandler)
			req := httptest.NewRequest("GET", "/api/services", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"localhost", "localhost", true},
		{"api.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"other.host", "localhost", false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"LocalHost", "*.lan"}, logger.NewNop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"localhost:7070", http.StatusOK},
		{"box.lan", http.StatusOK},
		{"attacker.example", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/ports", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("Host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestLimiterAllow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:     2,
		PerMinute: 60,
		now:       func() time.Time { return now },
	})

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("a"); !ok {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	ok, remaining, retry := l.allow("a")
	if ok || remaining != 0 || retry != 1 {
		t.Errorf("third request = %v/%d/%d, want rejected with retry 1s", ok, remaining, retry)
	}

	if ok, _, _ := l.allow("b"); !ok {
		t.Error("other client should have its own bucket")
	}

	now = now.Add(time.Second)
	if ok, _, _ := l.allow("a"); !ok {
		t.Error("bucket should refill one token per second")
	}
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:         1,
		PerMinute:     1,
		SweepInterval: time.Minute,
		IdleTTL:       time.Minute,
		now:           func() time.Time { return now },
	})
	l.allow("a")

	now = now.Add(5 * time.Minute)
	l.allow("b")

	if _, ok := l.buckets["a"]; ok {
		t.Error("idle bucket was not swept")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, PerMinute: 1})(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/ports/scan", nil)
		req.RemoteAddr = "127.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestLogRecordsStatus(t *testing.T) {
	h := Log(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
