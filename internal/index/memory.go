package index

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// Entry is an indexed service and its bookkeeping.
type Entry struct {
	Service   domain.ServiceRecord `json:"service"`
	FirstSeen time.Time            `json:"first_seen"`
	UpdatedAt time.Time            `json:"updated_at"`

	// Removed entries stay in the index until garbage collected, so that
	// clients can see what disappeared recently.
	Removed   bool      `json:"removed"`
	RemovedAt time.Time `json:"removed_at,omitzero"`
}

// MemoryIndex holds the latest known state of every service, kept current
// by applying monitor events. It serves reads without a discovery round.
type MemoryIndex struct {
	mu         sync.RWMutex
	entries    map[string]*Entry // ID -> Entry
	lastReload time.Time         // last full snapshot
	lastEvent  time.Time
	now        func() time.Time
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Publish applies ev. It lets the index act as a monitor sink.
func (idx *MemoryIndex) Publish(_ context.Context, ev domain.Event) error {
	idx.Apply(ev)
	return nil
}

// Apply folds one event into the index.
func (idx *MemoryIndex) Apply(ev domain.Event) {
	if ev.Type == domain.EventAllDiscovered {
		idx.UpdateServices(ev.Services)
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	idx.lastEvent = now

	switch ev.Type {
	case domain.EventAdded:
		idx.upsert(ev.Service, now)
	case domain.EventStatusChanged:
		if e, ok := idx.entries[ev.ServiceID]; ok {
			e.Service.Status = ev.NewStatus
			e.UpdatedAt = now
		}
	case domain.EventPortsChanged:
		if e, ok := idx.entries[ev.ServiceID]; ok {
			e.Service = e.Service.WithPorts(ev.Ports)
			e.UpdatedAt = now
		}
	case domain.EventRemoved:
		if e, ok := idx.entries[ev.ServiceID]; ok && !e.Removed {
			e.Removed = true
			e.RemovedAt = now
			e.UpdatedAt = now
		}
	}
}

// UpdateServices replaces the live set. Indexed services absent from
// services are marked removed.
func (idx *MemoryIndex) UpdateServices(services []domain.ServiceRecord) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	live := make(map[string]struct{}, len(services))
	for _, s := range services {
		live[s.ID] = struct{}{}
		idx.upsert(s, now)
	}
	for id, e := range idx.entries {
		if _, ok := live[id]; !ok && !e.Removed {
			e.Removed = true
			e.RemovedAt = now
			e.UpdatedAt = now
		}
	}
	idx.lastReload = now
	idx.lastEvent = now
}

func (idx *MemoryIndex) upsert(s domain.ServiceRecord, now time.Time) {
	if e, ok := idx.entries[s.ID]; ok {
		e.Service = s
		e.UpdatedAt = now
		e.Removed = false
		e.RemovedAt = time.Time{}
		return
	}
	idx.entries[s.ID] = &Entry{Service: s, FirstSeen: now, UpdatedAt: now}
}

// GetService retrieves a live service by ID
func (idx *MemoryIndex) GetService(id string) (domain.ServiceRecord, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[id]
	if !ok || e.Removed {
		return domain.ServiceRecord{}, false
	}
	return e.Service, true
}

// GetAllServices returns the live services, Running first then by name.
func (idx *MemoryIndex) GetAllServices() []domain.ServiceRecord {
	idx.mu.RLock()
	services := make([]domain.ServiceRecord, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !e.Removed {
			services = append(services, e.Service)
		}
	}
	idx.mu.RUnlock()

	slices.SortFunc(services, func(a, b domain.ServiceRecord) int {
		if a.IsRunning() != b.IsRunning() {
			if a.IsRunning() {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.LowerName(), b.LowerName()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return services
}

// Entries returns copies of all entries ordered by ID. Removed entries are
// included only when includeRemoved is set.
func (idx *MemoryIndex) Entries(includeRemoved bool) []Entry {
	idx.mu.RLock()
	out := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.Removed && !includeRemoved {
			continue
		}
		out = append(out, *e)
	}
	idx.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Service.ID, b.Service.ID) })
	return out
}

// RemovedBefore returns the ids of entries removed before t.
func (idx *MemoryIndex) RemovedBefore(t time.Time) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var ids []string
	for id, e := range idx.entries {
		if e.Removed && e.RemovedAt.Before(t) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// DeleteService drops an entry entirely
func (idx *MemoryIndex) DeleteService(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.entries, id)
}

// Count returns the number of live services in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, e := range idx.entries {
		if !e.Removed {
			n++
		}
	}
	return n
}

// GetLastReload returns the time of the last full snapshot
func (idx *MemoryIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}

// GetLastEvent returns the time the last event was applied
func (idx *MemoryIndex) GetLastEvent() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastEvent
}
