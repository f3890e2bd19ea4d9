package monitor

import "github.com/MrSnakeDoc/hostwatch/internal/domain"

// Diff returns the events that turn baseline into current.
//
// For ids present in both lists, in current order, a status change is
// reported before a port change and each independently. Additions follow,
// then removals. Records whose status and ports are unchanged produce
// nothing even if other fields differ.
func Diff(baseline, current []domain.ServiceRecord) []domain.Event {
	prev := make(map[string]domain.ServiceRecord, len(baseline))
	for _, s := range baseline {
		prev[s.ID] = s
	}
	seen := make(map[string]struct{}, len(current))

	var events, added []domain.Event
	for _, cur := range current {
		seen[cur.ID] = struct{}{}
		old, ok := prev[cur.ID]
		if !ok {
			added = append(added, domain.Added(cur))
			continue
		}
		if old.Status != cur.Status {
			events = append(events, domain.StatusChanged(cur.ID, old.Status, cur.Status))
		}
		if !domain.SamePorts(old.Ports, cur.Ports) {
			events = append(events, domain.PortsChanged(cur.ID, cur.Ports))
		}
	}
	events = append(events, added...)

	for _, old := range baseline {
		if _, ok := seen[old.ID]; !ok {
			events = append(events, domain.Removed(old.ID))
		}
	}
	return events
}
