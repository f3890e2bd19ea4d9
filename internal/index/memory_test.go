package index

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

func svc(id string, status domain.Status, ports ...uint16) domain.ServiceRecord {
	return domain.ServiceRecord{ID: id, Name: id, Status: status, Ports: domain.NormalizePorts(ports)}
}

// fixedClock returns an index whose clock is advanced by hand.
func fixedClock(start time.Time) (*MemoryIndex, *time.Time) {
	now := start
	idx := NewMemoryIndex()
	idx.now = func() time.Time { return now }
	return idx, &now
}

func TestNewMemoryIndex(t *testing.T) {
	index := NewMemoryIndex()
	if index == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	services := index.GetAllServices()
	if len(services) != 0 {
		t.Errorf("NewMemoryIndex() should start with empty services, got %v", len(services))
	}
}

func TestUpdateServices(t *testing.T) {
	index := NewMemoryIndex()

	index.UpdateServices([]domain.ServiceRecord{
		svc("nginx.service", domain.StatusRunning, 80),
		svc("cron.service", domain.StatusRunning),
	})

	if got := index.Count(); got != 2 {
		t.Errorf("UpdateServices() stored %v services, want 2", got)
	}
	if index.GetLastReload().IsZero() {
		t.Error("UpdateServices() should record the reload time")
	}
}

func TestUpdateServicesMarksMissingRemoved(t *testing.T) {
	index := NewMemoryIndex()

	index.UpdateServices([]domain.ServiceRecord{svc("service1", domain.StatusRunning)})
	index.UpdateServices([]domain.ServiceRecord{
		svc("service2", domain.StatusRunning),
		svc("service3", domain.StatusStopped),
	})

	if got := index.Count(); got != 2 {
		t.Errorf("Count() = %v, want 2", got)
	}
	if _, ok := index.GetService("service1"); ok {
		t.Error("service1 should no longer be live")
	}
	if got := len(index.Entries(true)); got != 3 {
		t.Errorf("Entries(true) = %v entries, want 3", got)
	}
}

func TestApply(t *testing.T) {
	index, now := fixedClock(time.Unix(1000, 0))
	index.Apply(domain.AllDiscovered([]domain.ServiceRecord{
		svc("a", domain.StatusRunning, 80),
		svc("b", domain.StatusRunning),
	}))

	*now = now.Add(time.Minute)
	index.Apply(domain.StatusChanged("a", domain.StatusRunning, domain.StatusStopped))
	index.Apply(domain.PortsChanged("a", []uint16{443, 80}))
	index.Apply(domain.Added(svc("c", domain.StatusRunning, 22)))
	index.Apply(domain.Removed("b"))
	index.Apply(domain.StatusChanged("unknown", domain.StatusRunning, domain.StatusStopped))

	a, ok := index.GetService("a")
	if !ok {
		t.Fatal("a missing")
	}
	if a.Status != domain.StatusStopped || !slices.Equal(a.Ports, []uint16{80, 443}) {
		t.Errorf("a = %+v", a)
	}
	if _, ok := index.GetService("c"); !ok {
		t.Error("c should be added")
	}
	if _, ok := index.GetService("b"); ok {
		t.Error("b should be removed")
	}
	if _, ok := index.GetService("unknown"); ok {
		t.Error("events for unknown ids must not create entries")
	}

	removed := index.RemovedBefore(now.Add(time.Second))
	if !slices.Equal(removed, []string{"b"}) {
		t.Errorf("RemovedBefore() = %v, want [b]", removed)
	}
	if got := index.RemovedBefore(*now); len(got) != 0 {
		t.Errorf("RemovedBefore(removal time) = %v, want none", got)
	}
}

func TestAddedRevivesRemoved(t *testing.T) {
	index := NewMemoryIndex()
	index.Apply(domain.Added(svc("a", domain.StatusRunning)))
	index.Apply(domain.Removed("a"))
	index.Apply(domain.Added(svc("a", domain.StatusRunning)))

	entries := index.Entries(false)
	if len(entries) != 1 || entries[0].Removed || !entries[0].RemovedAt.IsZero() {
		t.Errorf("Entries(false) = %+v", entries)
	}
}

func TestPublish(t *testing.T) {
	index := NewMemoryIndex()
	if err := index.Publish(context.Background(), domain.Added(svc("a", domain.StatusRunning))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if index.Count() != 1 {
		t.Error("Publish() should apply the event")
	}
}

func TestGetAllServicesOrder(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateServices([]domain.ServiceRecord{
		{ID: "1", Name: "zeta", Status: domain.StatusStopped},
		{ID: "2", Name: "Beta", Status: domain.StatusRunning},
		{ID: "3", Name: "alpha", Status: domain.StatusRunning},
	})

	var ids []string
	for _, s := range index.GetAllServices() {
		ids = append(ids, s.ID)
	}
	if want := []string{"3", "2", "1"}; !slices.Equal(ids, want) {
		t.Errorf("GetAllServices() order = %v, want %v", ids, want)
	}
}

func TestDeleteService(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateServices([]domain.ServiceRecord{svc("a", domain.StatusRunning)})
	index.DeleteService("a")

	if len(index.Entries(true)) != 0 {
		t.Error("DeleteService() should drop the entry")
	}
}

func TestConcurrentAccess(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateServices([]domain.ServiceRecord{svc("service1", domain.StatusRunning)})

	var wg sync.WaitGroup

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = index.GetAllServices()
		}()
	}

	// Concurrent port updates
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			index.Apply(domain.PortsChanged("service1", []uint16{uint16(1000 + i)}))
		}(i)
	}

	wg.Wait()

	s, ok := index.GetService("service1")
	if !ok || len(s.Ports) != 1 {
		t.Errorf("GetService() = %+v, %v", s, ok)
	}
}

func TestGetAllServicesReturnsCopies(t *testing.T) {
	index := NewMemoryIndex()
	index.UpdateServices([]domain.ServiceRecord{svc("service1", domain.StatusRunning)})

	snapshot := index.GetAllServices()
	snapshot[0].Status = domain.StatusError

	if s, _ := index.GetService("service1"); s.Status != domain.StatusRunning {
		t.Error("modifying a snapshot must not affect the index")
	}
}
