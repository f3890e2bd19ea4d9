package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
	"github.com/MrSnakeDoc/hostwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hostwatch/internal/logger"
	"github.com/MrSnakeDoc/hostwatch/internal/ports"
)

const (
	defaultScanHost  = "127.0.0.1"
	defaultFreeStart = 1024
	defaultFreeEnd   = 65535
	defaultFreeCount = 10
	maxFreeCount     = 1000
)

type portsResponse struct {
	Count int                 `json:"count"`
	Ports []domain.PortRecord `json:"ports"`
}

type freePortsResponse struct {
	Start uint16   `json:"start"`
	End   uint16   `json:"end"`
	Ports []uint16 `json:"ports"`
}

type scanResponse struct {
	Host  string              `json:"host"`
	Start uint16              `json:"start,omitempty"`
	End   uint16              `json:"end,omitempty"`
	Open  int                 `json:"open"`
	Ports []domain.PortRecord `json:"ports"`
}

// queryPort reads a 1-65535 port from the query string, or def when absent.
func queryPort(r *http.Request, key string, def uint16) (uint16, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%s must be a port between 1 and 65535", key)
	}
	return uint16(n), nil
}

func portRange(r *http.Request, defStart, defEnd uint16) (uint16, uint16, error) {
	start, err := queryPort(r, "start", defStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := queryPort(r, "end", defEnd)
	if err != nil {
		return 0, 0, err
	}
	if start > end {
		return 0, 0, fmt.Errorf("start (%d) must not exceed end (%d)", start, end)
	}
	return start, end, nil
}

func scanHost(r *http.Request) string {
	if h := strings.TrimSpace(r.URL.Query().Get("host")); h != "" {
		return h
	}
	return defaultScanHost
}

// PortUsage returns the live port table ordered by port.
func PortUsage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := d.Ports.GetPortUsage(r.Context())
		ports.SortByPort(records)
		writeJSON(w, http.StatusOK, portsResponse{Count: len(records), Ports: records}, d.Logger)
	}
}

func FreePorts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := portRange(r, defaultFreeStart, defaultFreeEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), d.Logger)
			return
		}

		count := defaultFreeCount
		if raw := r.URL.Query().Get("count"); raw != "" {
			count, err = strconv.Atoi(raw)
			if err != nil || count < 1 || count > maxFreeCount {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("count must be between 1 and %d", maxFreeCount), d.Logger)
				return
			}
		}

		writeJSON(w, http.StatusOK, freePortsResponse{
			Start: start,
			End:   end,
			Ports: d.Ports.FindFreePorts(r.Context(), start, end, count),
		}, d.Logger)
	}
}

// ScanRange probes [start,end] on host, 127.0.0.1 by default. Both bounds
// are required.
func ScanRange(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") == "" || q.Get("end") == "" {
			writeError(w, http.StatusBadRequest, "start and end are required", d.Logger)
			return
		}
		start, end, err := portRange(r, 0, 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), d.Logger)
			return
		}

		host := scanHost(r)
		d.Logger.Info("port scan requested",
			logger.String("host", host),
			logger.Int("start", int(start)),
			logger.Int("end", int(end)))

		open := d.Scanner.ScanRange(r.Context(), host, start, end)
		ports.SortByPort(open)
		writeJSON(w, http.StatusOK, scanResponse{
			Host:  host,
			Start: start,
			End:   end,
			Open:  len(open),
			Ports: open,
		}, d.Logger)
	}
}

func ScanCommon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := scanHost(r)
		open := d.Scanner.ScanCommonPorts(r.Context(), host)
		ports.SortByPort(open)
		writeJSON(w, http.StatusOK, scanResponse{
			Host:  host,
			Open:  len(open),
			Ports: open,
		}, d.Logger)
	}
}
