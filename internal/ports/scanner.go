package ports

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const (
	// DefaultProbeTimeout bounds each TCP connect attempt.
	DefaultProbeTimeout = 200 * time.Millisecond
	// DefaultMaxConcurrent bounds the number of probes in flight.
	DefaultMaxConcurrent = 100
)

// CommonPorts is the curated list probed by ScanCommonPorts.
var CommonPorts = []uint16{
	20, 21, 22, 23, 25, 53, 80, 110, 143, 443, 465, 587, 993, 995,
	3000, 3306, 5432, 5672, 6379, 8000, 8080, 8443, 9000, 27017,
}

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Scanner probes TCP ports with a bounded number of concurrent connects.
type Scanner struct {
	Timeout       time.Duration
	MaxConcurrent int
	Dialer        Dialer

	logger logger.Logger
}

// NewScanner returns a scanner using the system dialer.
// Non-positive values fall back to the defaults.
func NewScanner(timeout time.Duration, maxConcurrent int, log logger.Logger) *Scanner {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Scanner{
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
		Dialer:        &net.Dialer{},
		logger:        log,
	}
}

// ScanRange probes every port in [start,end] on host and returns one record
// per port that accepted a connection. Results are in completion order.
// At most MaxConcurrent probes run at any time; the call returns once every
// admitted probe has finished. Cancelling ctx stops admission of new probes.
func (s *Scanner) ScanRange(ctx context.Context, host string, start, end uint16) []domain.PortRecord {
	open := []domain.PortRecord{}
	if start > end {
		return open
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.maxConcurrent())
	)

admit:
	for p := int(start); p <= int(end); p++ {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break admit
		}

		wg.Add(1)
		go func(port uint16) {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := s.ScanPort(ctx, host, port)
			if !ok {
				if err != nil && !errors.Is(err, domain.ErrProbeTimeout) {
					s.logger.Debug("probe failed",
						logger.Int("port", int(port)),
						logger.Error(err))
				}
				return
			}

			mu.Lock()
			open = append(open, domain.PortRecord{
				Port:     port,
				Protocol: domain.ProtocolTCP,
				Status:   domain.PortOccupied,
			})
			mu.Unlock()
		}(uint16(p))
	}

	wg.Wait()
	return open
}

// ScanCommonPorts probes CommonPorts one after another.
func (s *Scanner) ScanCommonPorts(ctx context.Context, host string) []domain.PortRecord {
	open := []domain.PortRecord{}
	for _, port := range CommonPorts {
		if ctx.Err() != nil {
			break
		}
		if ok, _ := s.ScanPort(ctx, host, port); ok {
			open = append(open, domain.PortRecord{
				Port:     port,
				Protocol: domain.ProtocolTCP,
				Status:   domain.PortOccupied,
			})
		}
	}
	return open
}

// ScanPort reports whether host:port accepts a TCP connection within Timeout.
// A timeout is reported as domain.ErrProbeTimeout; a refused connection as
// (false, nil).
func (s *Scanner) ScanPort(ctx context.Context, host string, port uint16) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := s.Dialer.DialContext(probeCtx, "tcp", addr)
	if err == nil {
		_ = conn.Close()
		return true, nil
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return false, fmt.Errorf("%s: %w", addr, domain.ErrProbeTimeout)
	}
	if isRefused(err) {
		return false, nil
	}
	return false, err
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultProbeTimeout
	}
	return s.Timeout
}

func (s *Scanner) maxConcurrent() int {
	if s.MaxConcurrent <= 0 {
		return DefaultMaxConcurrent
	}
	return s.MaxConcurrent
}

// isRefused matches ECONNREFUSED through the net.OpError wrappers, with a
// text fallback for platforms that report WSA codes.
func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused")
}
