package security

import (
	"slices"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

type insecurePort struct {
	Port        uint16
	Label       string
	Description string
}

// insecurePorts lists plaintext or unauthenticated protocols, in report order.
var insecurePorts = []insecurePort{
	{21, "FTP", "FTP transfers data unencrypted, including passwords"},
	{23, "Telnet", "Telnet is unencrypted, use SSH instead"},
	{25, "SMTP", "SMTP without TLS transfers mail unencrypted"},
	{69, "TFTP", "TFTP has no authentication"},
	{80, "HTTP", "HTTP is unencrypted, use HTTPS"},
	{110, "POP3", "POP3 without TLS transfers mail unencrypted"},
	{143, "IMAP", "IMAP without TLS transfers mail unencrypted"},
	{161, "SNMP", "SNMP v1/v2 has weak authentication"},
	{389, "LDAP", "LDAP without TLS transfers directory data unencrypted"},
	{445, "SMB", "SMB is a frequent attack vector"},
	{512, "rexec", "Remote execution without strong authentication"},
	{513, "rlogin", "Remote login is insecure, use SSH"},
	{514, "rsh", "Remote shell is insecure, use SSH"},
	{1433, "MSSQL", "Databases should not be publicly reachable"},
	{1521, "Oracle", "Databases should not be publicly reachable"},
	{3306, "MySQL", "Databases should not be publicly reachable"},
	{5432, "PostgreSQL", "Databases should not be publicly reachable"},
	{6379, "Redis", "Redis often runs without authentication"},
	{11211, "Memcached", "Memcached has no authentication"},
	{27017, "MongoDB", "MongoDB should not be publicly reachable"},
}

// databasePorts are checked for public binds.
var databasePorts = []uint16{1433, 1521, 3306, 5432, 6379, 11211, 27017, 5984, 9200, 9300}

func isDatabasePort(port uint16) bool {
	return slices.Contains(databasePorts, port)
}

func portSeverity(port uint16) domain.Severity {
	switch port {
	case 23, 512, 513, 514:
		return domain.SeverityCritical
	case 21, 69:
		return domain.SeverityHigh
	case 25, 80, 110, 143, 161, 389, 445:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func portRecommendation(port uint16) string {
	switch port {
	case 21:
		return "Use SFTP (port 22) instead of FTP"
	case 23:
		return "Use SSH (port 22) instead of Telnet"
	case 25:
		return "Enable STARTTLS or use port 587 with TLS"
	case 80:
		return "Enable HTTPS and redirect HTTP to HTTPS"
	case 110:
		return "Use POP3S (port 995) with TLS"
	case 143:
		return "Use IMAPS (port 993) with TLS"
	case 389:
		return "Use LDAPS (port 636) with TLS"
	case 445:
		return "Restrict SMB access to the local network"
	}
	if isDatabasePort(port) {
		return "Bind the database to localhost and use an SSH tunnel for remote access"
	}
	return "Check whether this port really needs to be publicly reachable"
}

// softwareRule flags software that ships without authentication enabled.
type softwareRule struct {
	match          string
	port           uint16 // 0 means any; the issue then reports the first port
	idPrefix       string
	severity       domain.Severity
	title          string
	description    string
	recommendation string
}

var softwareRules = []softwareRule{
	{
		match:          "redis",
		port:           6379,
		idPrefix:       "redis-auth-",
		severity:       domain.SeverityHigh,
		title:          "Redis may be running without authentication",
		description:    "Redis has no password authentication by default",
		recommendation: "Set a password with 'requirepass' in redis.conf",
	},
	{
		match:          "mongodb",
		port:           27017,
		idPrefix:       "mongo-auth-",
		severity:       domain.SeverityHigh,
		title:          "MongoDB may be running without authentication",
		description:    "MongoDB does not enable authentication by default",
		recommendation: "Enable authentication with the --auth flag",
	},
	{
		match:          "elasticsearch",
		idPrefix:       "elastic-auth-",
		severity:       domain.SeverityMedium,
		title:          "Review Elasticsearch security",
		description:    "Elasticsearch X-Pack Security should be enabled",
		recommendation: "Enable X-Pack Security for authentication and TLS",
	},
}

// systemPrefixes are name prefixes of OS-owned services expected to run as root.
var systemPrefixes = []string{"com.apple.", "systemd", "launchd", "kernel", "init"}
