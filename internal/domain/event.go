package domain

import "encoding/json"

type EventType string

const (
	EventAllDiscovered EventType = "services_discovered"
	EventStatusChanged EventType = "service_status_changed"
	EventPortsChanged  EventType = "service_ports_changed"
	EventAdded         EventType = "service_added"
	EventRemoved       EventType = "service_removed"
)

// Event is a change notification produced by the monitor.
// Only the fields belonging to Type are meaningful.
type Event struct {
	Type EventType

	// EventAllDiscovered
	Services []ServiceRecord

	// EventStatusChanged, EventPortsChanged, EventRemoved
	ServiceID string

	// EventStatusChanged
	OldStatus Status
	NewStatus Status

	// EventPortsChanged
	Ports []uint16

	// EventAdded
	Service ServiceRecord
}

func AllDiscovered(services []ServiceRecord) Event {
	return Event{Type: EventAllDiscovered, Services: services}
}

func StatusChanged(id string, oldStatus, newStatus Status) Event {
	return Event{Type: EventStatusChanged, ServiceID: id, OldStatus: oldStatus, NewStatus: newStatus}
}

func PortsChanged(id string, ports []uint16) Event {
	return Event{Type: EventPortsChanged, ServiceID: id, Ports: NormalizePorts(ports)}
}

func Added(s ServiceRecord) Event {
	return Event{Type: EventAdded, ServiceID: s.ID, Service: s}
}

func Removed(id string) Event {
	return Event{Type: EventRemoved, ServiceID: id}
}

type statusChangedPayload struct {
	ServiceID string `json:"service_id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

type portsChangedPayload struct {
	ServiceID string   `json:"service_id"`
	Ports     []uint16 `json:"ports"`
}

type removedPayload struct {
	ServiceID string `json:"service_id"`
}

// Payload returns the variant-specific value serialized under "payload".
func (e Event) Payload() any {
	switch e.Type {
	case EventAllDiscovered:
		if e.Services == nil {
			return []ServiceRecord{}
		}
		return e.Services
	case EventStatusChanged:
		return statusChangedPayload{ServiceID: e.ServiceID, OldStatus: e.OldStatus, NewStatus: e.NewStatus}
	case EventPortsChanged:
		return portsChangedPayload{ServiceID: e.ServiceID, Ports: NormalizePorts(e.Ports)}
	case EventAdded:
		return e.Service
	case EventRemoved:
		return removedPayload{ServiceID: e.ServiceID}
	default:
		return nil
	}
}

// MarshalJSON encodes the event as {"type": ..., "payload": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    EventType `json:"type"`
		Payload any       `json:"payload"`
	}{Type: e.Type, Payload: e.Payload()})
}
