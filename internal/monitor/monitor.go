// Package monitor polls the aggregator on an interval and turns consecutive
// snapshots into change events.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

const (
	DefaultInterval = 5 * time.Second
	MinInterval     = time.Second
)

var (
	ErrAlreadyStarted  = errors.New("monitor already started")
	ErrInvalidInterval = fmt.Errorf("interval must be at least %v", MinInterval)
)

type Settings struct {
	Interval time.Duration
	Enabled  bool
}

func DefaultSettings() Settings {
	return Settings{Interval: DefaultInterval, Enabled: true}
}

func (s Settings) Validate() error {
	if s.Interval < MinInterval {
		return ErrInvalidInterval
	}
	return nil
}

// Discoverer produces a full service snapshot.
type Discoverer interface {
	DiscoverAll(ctx context.Context) []domain.ServiceRecord
}

// Status is a point-in-time view of the monitor for status endpoints.
type Status struct {
	Running  bool
	Settings Settings
	LastTick time.Time
	Ticks    int64
	Services int
}

type Monitor struct {
	discoverer Discoverer
	sink       Sink
	logger     logger.Logger

	settings atomic.Pointer[Settings]

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool

	lastTick atomic.Int64 // unix nanos
	ticks    atomic.Int64
	services atomic.Int64

	// baseline is only touched by the loop goroutine.
	baseline []domain.ServiceRecord
}

func New(d Discoverer, sink Sink, settings Settings, log logger.Logger) (*Monitor, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = Discard
	}
	m := &Monitor{discoverer: d, sink: sink, logger: log}
	m.settings.Store(&settings)
	return m, nil
}

func (m *Monitor) Settings() Settings { return *m.settings.Load() }

// SetSettings replaces the settings. The loop picks them up after its
// current sleep.
func (m *Monitor) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.settings.Store(&s)
	m.logger.Info("monitor settings updated",
		logger.Duration("interval", s.Interval),
		logger.Bool("enabled", s.Enabled))
	return nil
}

func (m *Monitor) UpdateInterval(d time.Duration) error {
	s := m.Settings()
	s.Interval = d
	return m.SetSettings(s)
}

func (m *Monitor) SetEnabled(enabled bool) error {
	s := m.Settings()
	s.Enabled = enabled
	return m.SetSettings(s)
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	running := m.started && !m.stopped
	m.mu.Unlock()

	st := Status{
		Running:  running,
		Settings: m.Settings(),
		Ticks:    m.ticks.Load(),
		Services: int(m.services.Load()),
	}
	if ns := m.lastTick.Load(); ns > 0 {
		st.LastTick = time.Unix(0, ns)
	}
	return st
}

// Start launches the polling loop. It runs until Stop is called or ctx is
// cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	s := m.Settings()
	m.logger.Info("⏳ starting service monitor",
		logger.Duration("interval", s.Interval),
		logger.Bool("enabled", s.Enabled))

	go m.loop(ctx)
	return nil
}

// Stop ends the loop and waits for it to exit. Safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	m.logger.Info("service monitor stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	for {
		s := m.Settings()
		if s.Enabled {
			m.tick(ctx)
		}

		timer := time.NewTimer(s.Interval)
		select {
		case <-timer.C:
		case <-m.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	current := m.discoverer.DiscoverAll(ctx)
	if ctx.Err() != nil {
		return
	}

	var events []domain.Event
	if len(m.baseline) == 0 {
		events = []domain.Event{domain.AllDiscovered(current)}
	} else {
		events = Diff(m.baseline, current)
	}
	m.baseline = current

	m.ticks.Add(1)
	m.lastTick.Store(time.Now().UnixNano())
	m.services.Store(int64(len(current)))

	var err error
	for _, ev := range events {
		err = multierr.Append(err, m.sink.Publish(ctx, ev))
	}
	if err != nil {
		m.logger.Warn("event delivery failed",
			logger.Int("events", len(events)),
			logger.Error(err))
	}
	if len(events) > 0 {
		m.logger.Debug("monitor tick", logger.Int("events", len(events)))
	}
}
