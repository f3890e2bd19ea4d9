package ports

import (
	"context"

	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// socket types as reported in ConnectionStat.Type
const (
	sockStream = 1
	sockDgram  = 2
)

// nativePortTable reads the socket table through gopsutil. Process names are
// not filled in.
func nativePortTable(ctx context.Context) ([]domain.PortRecord, error) {
	conns, err := psnet.ConnectionsWithContext(ctx, "inet")
	if err != nil {
		return nil, err
	}
	return MapConnections(conns), nil
}

// MapConnections keeps listening TCP sockets and unconnected UDP sockets.
func MapConnections(conns []psnet.ConnectionStat) []domain.PortRecord {
	records := make([]domain.PortRecord, 0, len(conns))
	for _, c := range conns {
		var proto domain.Protocol
		switch {
		case c.Type == sockStream && c.Status == "LISTEN":
			proto = domain.ProtocolTCP
		case c.Type == sockDgram && c.Raddr.Port == 0:
			proto = domain.ProtocolUDP
		default:
			continue
		}
		if c.Laddr.Port == 0 || c.Laddr.Port > 65535 {
			continue
		}

		addr := c.Laddr.IP
		if addr == "" {
			addr = "*"
		}
		records = append(records, domain.PortRecord{
			Port:     uint16(c.Laddr.Port),
			Protocol: proto,
			Status:   domain.PortOccupied,
			PID:      int(c.Pid),
			Address:  addr,
		})
	}
	return dedupe(records)
}
