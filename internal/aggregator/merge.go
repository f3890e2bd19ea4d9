package aggregator

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

const (
	MaxPlatformServices = 100
	MaxResidual         = 50
	MaxResidualPorts    = 10
	MaxServices         = 150

	// descriptionPorts is how many ports a residual description lists.
	descriptionPorts = 5
)

// runningFirst orders Running records before all others.
func runningFirst(a, b domain.ServiceRecord) int {
	switch {
	case a.IsRunning() == b.IsRunning():
		return 0
	case a.IsRunning():
		return -1
	default:
		return 1
	}
}

// LimitPlatform keeps at most limit native services, Running ones first.
func LimitPlatform(services []domain.ServiceRecord, limit int) []domain.ServiceRecord {
	out := slices.Clone(services)
	slices.SortStableFunc(out, runningFirst)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Enrich replaces the ports of every record carrying a pid with the ports
// the port table attributes to that pid. A pid owning nothing gets an
// empty set.
func Enrich(services []domain.ServiceRecord, byPID map[int][]uint16) []domain.ServiceRecord {
	out := make([]domain.ServiceRecord, len(services))
	for i, s := range services {
		if s.HasPID() {
			s = s.WithPorts(byPID[s.PID])
		}
		out[i] = s
	}
	return out
}

// NameFunc resolves a process name for a pid the port table left unnamed.
type NameFunc func(pid int) (string, bool)

// Residuals synthesizes a record for each port-owning pid that no service
// claims. At most MaxResidual pids are kept, those owning the most ports
// first.
func Residuals(table []domain.PortRecord, services []domain.ServiceRecord, lookup NameFunc) []domain.ServiceRecord {
	claimed := make(map[int]struct{}, len(services))
	for _, s := range services {
		if s.HasPID() {
			claimed[s.PID] = struct{}{}
		}
	}

	byPID := domain.PortsByPID(table)
	pids := make([]int, 0, len(byPID))
	for pid := range byPID {
		if _, ok := claimed[pid]; !ok {
			pids = append(pids, pid)
		}
	}
	slices.SortFunc(pids, func(a, b int) int {
		if c := cmp.Compare(len(byPID[b]), len(byPID[a])); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(pids) > MaxResidual {
		pids = pids[:MaxResidual]
	}

	names := tableNames(table)
	out := make([]domain.ServiceRecord, 0, len(pids))
	for _, pid := range pids {
		ports := byPID[pid]
		if len(ports) > MaxResidualPorts {
			ports = ports[:MaxResidualPorts]
		}
		out = append(out, domain.ServiceRecord{
			ID:          "process-" + strconv.Itoa(pid),
			Name:        residualName(pid, names, lookup),
			Kind:        domain.KindProcess,
			Status:      domain.StatusRunning,
			Ports:       domain.NormalizePorts(ports),
			PID:         pid,
			Description: portsDescription(byPID[pid]),
		})
	}
	return out
}

// tableNames maps pid to the first process name the port table reports.
func tableNames(table []domain.PortRecord) map[int]string {
	names := make(map[int]string)
	for _, r := range table {
		if r.PID <= 0 || r.ProcessName == "" {
			continue
		}
		if _, ok := names[r.PID]; !ok {
			names[r.PID] = r.ProcessName
		}
	}
	return names
}

func residualName(pid int, names map[int]string, lookup NameFunc) string {
	if n, ok := names[pid]; ok {
		return n
	}
	if lookup != nil {
		if n, ok := lookup(pid); ok {
			return n
		}
	}
	return fmt.Sprintf("Process %d", pid)
}

func portsDescription(ports []uint16) string {
	if len(ports) == 1 {
		return fmt.Sprintf("Port %d", ports[0])
	}
	shown := ports
	if len(shown) > descriptionPorts {
		shown = shown[:descriptionPorts]
	}
	parts := make([]string, len(shown))
	for i, p := range shown {
		parts[i] = strconv.Itoa(int(p))
	}
	desc := "Ports: " + strings.Join(parts, ", ")
	if len(ports) > descriptionPorts {
		desc += ", …"
	}
	return desc
}

// Dedup drops records whose id was already seen. The first occurrence wins.
func Dedup(services []domain.ServiceRecord) []domain.ServiceRecord {
	seen := make(map[string]struct{}, len(services))
	out := make([]domain.ServiceRecord, 0, len(services))
	for _, s := range services {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Order sorts Running records first, then by case-insensitive name.
// The sort is stable.
func Order(services []domain.ServiceRecord) {
	slices.SortStableFunc(services, func(a, b domain.ServiceRecord) int {
		if c := runningFirst(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.LowerName(), b.LowerName())
	})
}

// Sources is the output of one discovery round, grouped by provider.
type Sources struct {
	Containers []domain.ServiceRecord
	Platform   []domain.ServiceRecord
	Processes  []domain.ServiceRecord
}

// Merge runs the pure part of the pipeline over a port table and the
// provider results.
func Merge(table []domain.PortRecord, src Sources, lookup NameFunc) []domain.ServiceRecord {
	all := make([]domain.ServiceRecord, 0, len(src.Containers)+len(src.Platform)+len(src.Processes))
	all = append(all, src.Containers...)
	all = append(all, LimitPlatform(src.Platform, MaxPlatformServices)...)
	all = append(all, src.Processes...)

	all = Enrich(all, domain.PortsByPID(table))
	all = append(all, Residuals(table, all, lookup)...)

	all = Dedup(all)
	Order(all)
	if len(all) > MaxServices {
		all = all[:MaxServices]
	}
	return all
}
