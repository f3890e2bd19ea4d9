package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/hostwatch/internal/logger"
	"github.com/MrSnakeDoc/hostwatch/internal/utils"
)

// AllowOnlyCIDRS lets through only clients whose address falls in one of the
// allowed networks. An empty list disables the check.
// trustProxy should be true only behind a trusted reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m, invalid := utils.NewAddrMatcher(allowed)
	if len(invalid) > 0 {
		log.Warn("ignoring invalid allow-list entries", logger.Strings("entries", invalid))
	}
	if m.IsEmpty() {
		log.Warn("AllowOnlyCIDRS: empty allow-list, API is open to every client")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := utils.ClientAddr(r, trustProxy)
			if !ok || !m.Allow(addr) {
				log.Debug("client rejected by allow-list",
					logger.String("client", addr.String()),
					logger.String("remote_addr", r.RemoteAddr))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
