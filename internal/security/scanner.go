// Package security runs a heuristic audit over discovered services and the
// host port table.
package security

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/hostexec"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
)

// PortTable is the port enumeration the scanner reads.
type PortTable interface {
	GetPortUsage(ctx context.Context) []domain.PortRecord
}

// OwnerLookup returns the user owning a process.
type OwnerLookup interface {
	Owner(ctx context.Context, pid int) (string, error)
}

// PSOwner resolves owners with `ps -o user= -p <pid>`.
type PSOwner struct {
	Runner hostexec.Runner
}

func (o PSOwner) Owner(ctx context.Context, pid int) (string, error) {
	out, err := o.Runner.Run(ctx, "ps", "-o", "user=", "-p", strconv.Itoa(pid))
	if err != nil {
		return "", err
	}
	user := strings.TrimSpace(string(out))
	if user == "" {
		return "", fmt.Errorf("pid %d: %w", pid, domain.ErrTargetNotFound)
	}
	return user, nil
}

type Scanner struct {
	ports  PortTable
	owners OwnerLookup
	logger logger.Logger

	// checkRoot is false on Windows, where process ownership is not probed.
	checkRoot bool
	now       func() time.Time
}

// NewScanner builds a scanner. owners may be nil to skip the root check.
func NewScanner(ports PortTable, owners OwnerLookup, log logger.Logger) *Scanner {
	return &Scanner{
		ports:     ports,
		owners:    owners,
		logger:    log,
		checkRoot: runtime.GOOS != "windows" && owners != nil,
		now:       time.Now,
	}
}

// Scan audits services against the current port table. It never fails:
// data that cannot be read yields fewer issues.
func (s *Scanner) Scan(ctx context.Context, services []domain.ServiceRecord) domain.SecurityScanResult {
	table := s.ports.GetPortUsage(ctx)
	open := domain.OpenPorts(table)

	issues := make([]domain.SecurityIssue, 0)
	issues = append(issues, insecurePortIssues(open, services)...)
	issues = append(issues, publicDatabaseIssues(table, services)...)
	for _, svc := range services {
		issues = append(issues, softwareIssues(svc)...)
	}
	if s.checkRoot {
		issues = append(issues, s.rootIssues(ctx, services)...)
	}

	result := domain.SecurityScanResult{
		Issues:          issues,
		ScanTimestamp:   s.now().Unix(),
		ServicesScanned: len(services),
		PortsScanned:    len(open),
	}
	result.Tally()

	s.logger.Info("security scan complete",
		logger.Int("services", result.ServicesScanned),
		logger.Int("ports", result.PortsScanned),
		logger.Int("issues", len(issues)),
		logger.Int("critical", result.CriticalCount))

	return result
}

// owningService returns the first service whose ports contain port.
func owningService(services []domain.ServiceRecord, port uint16) (domain.ServiceRecord, bool) {
	for _, s := range services {
		if s.HasPort(port) {
			return s, true
		}
	}
	return domain.ServiceRecord{}, false
}

func portPtr(p uint16) *uint16 { return &p }

func insecurePortIssues(open map[uint16]struct{}, services []domain.ServiceRecord) []domain.SecurityIssue {
	var issues []domain.SecurityIssue
	for _, ip := range insecurePorts {
		if _, ok := open[ip.Port]; !ok {
			continue
		}
		issue := domain.SecurityIssue{
			ID:             fmt.Sprintf("port-%d", ip.Port),
			Category:       domain.CategoryUnencryptedConnection,
			Severity:       portSeverity(ip.Port),
			Title:          fmt.Sprintf("%s port %d is open", ip.Label, ip.Port),
			Description:    ip.Description,
			Recommendation: portRecommendation(ip.Port),
			Port:           portPtr(ip.Port),
		}
		if svc, ok := owningService(services, ip.Port); ok {
			issue.ServiceID, issue.ServiceName = svc.ID, svc.Name
		}
		issues = append(issues, issue)
	}
	return issues
}

// publicDatabaseIssues reports each database port with at least one
// listener bound to a public address.
func publicDatabaseIssues(table []domain.PortRecord, services []domain.ServiceRecord) []domain.SecurityIssue {
	var issues []domain.SecurityIssue
	reported := make(map[uint16]struct{})

	for _, r := range table {
		if !isDatabasePort(r.Port) || !domain.IsPublicBind(r.Address) {
			continue
		}
		if _, ok := reported[r.Port]; ok {
			continue
		}
		reported[r.Port] = struct{}{}

		issue := domain.SecurityIssue{
			ID:             fmt.Sprintf("public-db-%d", r.Port),
			ServiceName:    r.ProcessName,
			Category:       domain.CategoryPublicExposure,
			Severity:       domain.SeverityCritical,
			Title:          fmt.Sprintf("Database on port %d is publicly reachable", r.Port),
			Description:    "Databases should not be reachable from outside the host",
			Recommendation: "Bind the database to localhost (127.0.0.1) or put it behind a firewall",
			Port:           portPtr(r.Port),
			Details:        fmt.Sprintf("%s bound to %s", r.ProcessName, r.Address),
		}
		if svc, ok := owningService(services, r.Port); ok {
			issue.ServiceID = svc.ID
			if issue.ServiceName == "" {
				issue.ServiceName = svc.Name
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

func softwareIssues(svc domain.ServiceRecord) []domain.SecurityIssue {
	var issues []domain.SecurityIssue
	name := svc.LowerName()

	for _, rule := range softwareRules {
		if !strings.Contains(name, rule.match) {
			continue
		}
		var port *uint16
		if rule.port != 0 {
			if !svc.HasPort(rule.port) {
				continue
			}
			port = portPtr(rule.port)
		} else if len(svc.Ports) > 0 {
			port = portPtr(svc.Ports[0])
		}
		issues = append(issues, domain.SecurityIssue{
			ID:             rule.idPrefix + svc.ID,
			ServiceID:      svc.ID,
			ServiceName:    svc.Name,
			Category:       domain.CategoryMissingAuthentication,
			Severity:       rule.severity,
			Title:          rule.title,
			Description:    rule.description,
			Recommendation: rule.recommendation,
			Port:           port,
		})
	}
	return issues
}

func (s *Scanner) rootIssues(ctx context.Context, services []domain.ServiceRecord) []domain.SecurityIssue {
	var issues []domain.SecurityIssue
	for _, svc := range services {
		if !svc.HasPID() || isSystemService(svc.Name) {
			continue
		}
		owner, err := s.owners.Owner(ctx, svc.PID)
		if err != nil {
			s.logger.Debug("process owner unavailable",
				logger.Int("pid", svc.PID),
				logger.Error(err))
			continue
		}
		if owner != "root" {
			continue
		}

		issue := domain.SecurityIssue{
			ID:             "root-" + svc.ID,
			ServiceID:      svc.ID,
			ServiceName:    svc.Name,
			Category:       domain.CategoryPrivilegeEscalation,
			Severity:       domain.SeverityMedium,
			Title:          svc.Name + " runs as root",
			Description:    "Services should run with the least privileges they need",
			Recommendation: "Create a dedicated user for this service",
			Details:        fmt.Sprintf("PID: %d", svc.PID),
		}
		if len(svc.Ports) > 0 {
			issue.Port = portPtr(svc.Ports[0])
		}
		issues = append(issues, issue)
	}
	return issues
}

func isSystemService(name string) bool {
	name = strings.ToLower(name)
	for _, p := range systemPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
