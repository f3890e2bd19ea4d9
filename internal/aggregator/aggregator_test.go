package aggregator

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

type staticTable []domain.PortRecord

func (t staticTable) GetPortUsage(context.Context) []domain.PortRecord { return t }

type fakeProvider struct {
	name      string
	kind      domain.Kind
	available bool
	services  []domain.ServiceRecord
	err       error
	calls     int
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Kind() domain.Kind                { return f.kind }
func (f *fakeProvider) Available(_ context.Context) bool { return f.available }

func (f *fakeProvider) Discover(context.Context) ([]domain.ServiceRecord, error) {
	f.calls++
	return f.services, f.err
}

func (f *fakeProvider) GetService(context.Context, string) (domain.ServiceRecord, error) {
	return domain.ServiceRecord{}, domain.ErrTargetNotFound
}

type names map[int]string

func (n names) LookupName(_ context.Context, pid int) (string, bool) {
	name, ok := n[pid]
	return name, ok
}

func TestDiscoverAllIsolatesFailingProvider(t *testing.T) {
	container := &fakeProvider{name: "Docker", available: true, err: errors.New("daemon gone")}
	platform := &fakeProvider{name: "systemd", available: true, services: []domain.ServiceRecord{
		svc("ssh.service", "ssh", domain.StatusRunning, 0),
	}}

	a := New(staticTable{}, Options{Container: container, Platform: platform}, logger.NewNop())
	got := a.DiscoverAll(context.Background())

	if len(got) != 1 || got[0].ID != "ssh.service" {
		t.Errorf("DiscoverAll() = %+v, want only ssh.service", got)
	}
}

func TestDiscoverAllSkipsUnavailable(t *testing.T) {
	container := &fakeProvider{name: "Docker", available: false}
	a := New(staticTable{}, Options{Container: container}, logger.NewNop())

	if got := a.DiscoverAll(context.Background()); len(got) != 0 {
		t.Errorf("DiscoverAll() = %+v, want empty", got)
	}
	if container.calls != 0 {
		t.Errorf("Discover called %d times on an unavailable provider", container.calls)
	}
}

func TestDiscoverAllProcessesOptIn(t *testing.T) {
	process := &fakeProvider{name: "Process", available: true, services: []domain.ServiceRecord{
		{ID: "42", Name: "worker", Kind: domain.KindProcess, Status: domain.StatusRunning},
	}}

	tests := []struct {
		name     string
		include  bool
		expected int
	}{
		{name: "excluded by default", include: false, expected: 0},
		{name: "included when enabled", include: true, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(staticTable{}, Options{Process: process, IncludeProcesses: tt.include}, logger.NewNop())
			if got := a.DiscoverAll(context.Background()); len(got) != tt.expected {
				t.Errorf("DiscoverAll() returned %d records, want %d", len(got), tt.expected)
			}
		})
	}
}

func TestDiscoverAllUsesNameLookup(t *testing.T) {
	table := staticTable{{Port: 9090, PID: 77}}
	a := New(table, Options{Names: names{77: "prometheus"}}, logger.NewNop())

	got := a.DiscoverAll(context.Background())
	if len(got) != 1 || got[0].Name != "prometheus" {
		t.Errorf("DiscoverAll() = %+v, want one record named prometheus", got)
	}
}

func TestDiscoverAllIsIdempotent(t *testing.T) {
	table := staticTable{
		{Port: 22, PID: 812, ProcessName: "sshd"},
		{Port: 80, PID: 700},
	}
	platform := &fakeProvider{name: "systemd", available: true, services: []domain.ServiceRecord{
		svc("nginx.service", "nginx", domain.StatusRunning, 700),
		svc("cron.service", "cron", domain.StatusRunning, 0),
	}}
	a := New(table, Options{Platform: platform}, logger.NewNop())

	first := a.DiscoverAll(context.Background())
	second := a.DiscoverAll(context.Background())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive rounds differ:\n%+v\n%+v", first, second)
	}
}

func TestGetService(t *testing.T) {
	platform := &fakeProvider{name: "systemd", available: true, services: []domain.ServiceRecord{
		svc("ssh.service", "ssh", domain.StatusRunning, 0),
	}}
	a := New(staticTable{}, Options{Platform: platform}, logger.NewNop())

	s, err := a.GetService(context.Background(), "ssh.service")
	if err != nil || s.Name != "ssh" {
		t.Errorf("GetService() = %+v, %v", s, err)
	}

	_, err = a.GetService(context.Background(), "missing")
	if !errors.Is(err, domain.ErrTargetNotFound) {
		t.Errorf("GetService(missing) error = %v, want ErrTargetNotFound", err)
	}
}
