package ports

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// The parsers below are pure: raw tool output in, best-effort records out.
// A line that does not fit the expected shape is skipped, never fatal.

// ParseSS parses `ss -tulnp` output.
//
//	Netid State  Recv-Q Send-Q Local Address:Port Peer Address:Port Process
//	tcp   LISTEN 0      4096   0.0.0.0:22         0.0.0.0:*         users:(("sshd",pid=812,fd=3))
func ParseSS(out string) []domain.PortRecord {
	var records []domain.PortRecord

	for _, fields := range lines(out) {
		if len(fields) < 5 {
			continue
		}
		proto, ok := parseProtocol(fields[0])
		if !ok {
			continue
		}
		addr, port, ok := splitAddrPort(fields[4])
		if !ok {
			continue
		}

		rec := domain.PortRecord{
			Port:     port,
			Protocol: proto,
			Status:   domain.PortOccupied,
			Address:  addr,
		}
		if len(fields) > 6 {
			rec.ProcessName, rec.PID = parseSSUsers(strings.Join(fields[6:], " "))
		}
		records = append(records, rec)
	}

	return dedupe(records)
}

// parseSSUsers extracts the first process from users:(("name",pid=N,fd=M),...).
func parseSSUsers(s string) (string, int) {
	i := strings.Index(s, `(("`)
	if i < 0 {
		return "", 0
	}
	rest := s[i+3:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", 0
	}
	name := rest[:end]

	pid := 0
	if j := strings.Index(rest, "pid="); j >= 0 {
		digits := rest[j+4:]
		if k := strings.IndexAny(digits, ",)"); k >= 0 {
			digits = digits[:k]
		}
		pid, _ = strconv.Atoi(digits)
	}
	return name, pid
}

// ParseNetstatLinux parses `netstat -tulpn` output.
//
//	tcp   0 0 0.0.0.0:22  0.0.0.0:* LISTEN 812/sshd
//	udp   0 0 0.0.0.0:68  0.0.0.0:*        640/dhclient
func ParseNetstatLinux(out string) []domain.PortRecord {
	var records []domain.PortRecord

	for _, fields := range lines(out) {
		if len(fields) < 6 {
			continue
		}
		proto, ok := parseProtocol(fields[0])
		if !ok {
			continue
		}
		if proto == domain.ProtocolTCP && fields[5] != "LISTEN" {
			continue
		}
		addr, port, ok := splitAddrPort(fields[3])
		if !ok {
			continue
		}

		rec := domain.PortRecord{
			Port:     port,
			Protocol: proto,
			Status:   domain.PortOccupied,
			Address:  addr,
		}
		for i := 5; i < len(fields); i++ {
			pidStr, name, found := strings.Cut(fields[i], "/")
			if !found {
				continue
			}
			if pid, err := strconv.Atoi(pidStr); err == nil {
				rec.PID = pid
				rec.ProcessName = strings.Join(append([]string{name}, fields[i+1:]...), " ")
			}
			break
		}
		records = append(records, rec)
	}

	return dedupe(records)
}

// ParseLsof parses `lsof -i -P -n` output. Connected sockets and non-listening
// TCP sockets are dropped.
//
//	COMMAND   PID USER FD  TYPE DEVICE SIZE/OFF NODE NAME
//	postgres  512 me   7u  IPv6 0x1f   0t0      TCP  [::1]:5432 (LISTEN)
func ParseLsof(out string) []domain.PortRecord {
	var records []domain.PortRecord

	for _, fields := range lines(out) {
		if len(fields) < 9 {
			continue
		}
		proto, ok := parseProtocol(fields[7])
		if !ok {
			continue
		}
		name := fields[8]
		if strings.Contains(name, "->") {
			continue
		}
		if proto == domain.ProtocolTCP && (len(fields) < 10 || fields[9] != "(LISTEN)") {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		addr, port, ok := splitAddrPort(name)
		if !ok {
			continue
		}

		records = append(records, domain.PortRecord{
			Port:        port,
			Protocol:    proto,
			Status:      domain.PortOccupied,
			ProcessName: strings.ReplaceAll(fields[0], `\x20`, " "),
			PID:         pid,
			Address:     addr,
		})
	}

	return dedupe(records)
}

// ParseNetstatWindows parses `netstat -ano` output. Only LISTENING TCP rows
// and UDP rows are kept. Process names are not available from this tool.
//
//	TCP    0.0.0.0:135    0.0.0.0:0    LISTENING    1024
//	UDP    0.0.0.0:123    *:*                       2048
func ParseNetstatWindows(out string) []domain.PortRecord {
	var records []domain.PortRecord

	for _, fields := range lines(out) {
		if len(fields) < 4 {
			continue
		}
		proto, ok := parseProtocol(fields[0])
		if !ok {
			continue
		}

		pidField := fields[3]
		if proto == domain.ProtocolTCP {
			if len(fields) < 5 || fields[3] != "LISTENING" {
				continue
			}
			pidField = fields[4]
		}
		pid, err := strconv.Atoi(pidField)
		if err != nil {
			continue
		}
		addr, port, ok := splitAddrPort(fields[1])
		if !ok {
			continue
		}

		records = append(records, domain.PortRecord{
			Port:     port,
			Protocol: proto,
			Status:   domain.PortOccupied,
			PID:      pid,
			Address:  addr,
		})
	}

	return dedupe(records)
}

func lines(out string) [][]string {
	var rows [][]string
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			rows = append(rows, fields)
		}
	}
	return rows
}

func parseProtocol(s string) (domain.Protocol, bool) {
	switch strings.ToLower(s) {
	case "tcp", "tcp4", "tcp6", "tcp46":
		return domain.ProtocolTCP, true
	case "udp", "udp4", "udp6", "udp46":
		return domain.ProtocolUDP, true
	}
	return "", false
}

// splitAddrPort splits "0.0.0.0:22", "[::]:22", "*:22", ":::22" and
// "127.0.0.53%lo:53" at the last colon.
func splitAddrPort(s string) (string, uint16, bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "", 0, false
	}
	port, err := strconv.ParseUint(s[i+1:], 10, 16)
	if err != nil {
		return "", 0, false
	}
	addr := s[:i]
	if addr == "" {
		addr = "*"
	}
	return addr, uint16(port), true
}

type recordKey struct {
	proto domain.Protocol
	port  uint16
	pid   int
	addr  string
}

func dedupe(records []domain.PortRecord) []domain.PortRecord {
	seen := make(map[recordKey]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		k := recordKey{r.Protocol, r.Port, r.PID, r.Address}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
