package monitor

import (
	"testing"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

func rec(id string, status domain.Status, ports ...uint16) domain.ServiceRecord {
	return domain.ServiceRecord{ID: id, Name: id, Status: status, Ports: domain.NormalizePorts(ports)}
}

func types(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e.Type) + ":" + e.ServiceID
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		baseline []domain.ServiceRecord
		current  []domain.ServiceRecord
		expected []string
	}{
		{
			name:     "no change",
			baseline: []domain.ServiceRecord{rec("a", domain.StatusRunning, 80)},
			current:  []domain.ServiceRecord{rec("a", domain.StatusRunning, 80)},
			expected: []string{},
		},
		{
			name:     "status and ports change independently",
			baseline: []domain.ServiceRecord{rec("a", domain.StatusRunning, 80)},
			current:  []domain.ServiceRecord{rec("a", domain.StatusStopped)},
			expected: []string{"service_status_changed:a", "service_ports_changed:a"},
		},
		{
			name:     "port order is not a change",
			baseline: []domain.ServiceRecord{{ID: "a", Status: domain.StatusRunning, Ports: []uint16{443, 80}}},
			current:  []domain.ServiceRecord{{ID: "a", Status: domain.StatusRunning, Ports: []uint16{80, 443}}},
			expected: []string{},
		},
		{
			name:     "changes then added then removed",
			baseline: []domain.ServiceRecord{rec("a", domain.StatusRunning), rec("b", domain.StatusRunning), rec("gone", domain.StatusRunning)},
			current:  []domain.ServiceRecord{rec("new", domain.StatusRunning), rec("b", domain.StatusError), rec("a", domain.StatusRunning, 22)},
			expected: []string{
				"service_status_changed:b",
				"service_ports_changed:a",
				"service_added:new",
				"service_removed:gone",
			},
		},
		{
			name:     "everything removed",
			baseline: []domain.ServiceRecord{rec("a", domain.StatusRunning), rec("b", domain.StatusRunning)},
			current:  nil,
			expected: []string{"service_removed:a", "service_removed:b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(Diff(tt.baseline, tt.current))
			if len(got) != len(tt.expected) {
				t.Fatalf("Diff() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("event %d = %s, want %s", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDiffStatusPayload(t *testing.T) {
	events := Diff(
		[]domain.ServiceRecord{rec("a", domain.StatusRunning)},
		[]domain.ServiceRecord{rec("a", domain.StatusError)},
	)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].OldStatus != domain.StatusRunning || events[0].NewStatus != domain.StatusError {
		t.Errorf("status change = %s -> %s", events[0].OldStatus, events[0].NewStatus)
	}
}
