package domain

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities from Info (0) to Critical (4).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type Category string

const (
	CategoryUnencryptedConnection Category = "unencrypted_connection"
	CategoryPublicExposure        Category = "public_exposure"
	CategoryDefaultCredentials    Category = "default_credentials"
	CategoryOutdatedSoftware      Category = "outdated_software"
	CategoryMissingAuthentication Category = "missing_authentication"
	CategoryInsecureConfiguration Category = "insecure_configuration"
	CategoryPrivilegeEscalation   Category = "privilege_escalation"
	CategoryDataLeakage           Category = "data_leakage"
)

type SecurityIssue struct {
	ID             string   `json:"id"`
	ServiceID      string   `json:"service_id,omitempty"`
	ServiceName    string   `json:"service_name,omitempty"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Port           *uint16  `json:"port,omitempty"`
	Details        string   `json:"details,omitempty"`
}

type SecurityScanResult struct {
	Issues          []SecurityIssue `json:"issues"`
	ScanTimestamp   int64           `json:"scan_timestamp"`
	ServicesScanned int             `json:"services_scanned"`
	PortsScanned    int             `json:"ports_scanned"`
	CriticalCount   int             `json:"critical_count"`
	HighCount       int             `json:"high_count"`
	MediumCount     int             `json:"medium_count"`
	LowCount        int             `json:"low_count"`
	InfoCount       int             `json:"info_count"`
}

// Tally recomputes the per-severity counters from Issues.
func (r *SecurityScanResult) Tally() {
	r.CriticalCount, r.HighCount, r.MediumCount, r.LowCount, r.InfoCount = 0, 0, 0, 0, 0
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityHigh:
			r.HighCount++
		case SeverityMedium:
			r.MediumCount++
		case SeverityLow:
			r.LowCount++
		default:
			r.InfoCount++
		}
	}
}
