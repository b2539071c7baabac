package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// HostAllowlist rejects requests whose Host (or X-Forwarded-Host, set by the
// edge proxy) is not on the configured list. Patterns are either exact
// hostnames or "*.example.com" suffix wildcards; ports are ignored. When an
// Origin header is present its hostname is checked against the same list.
// An empty list disables the check.
func HostAllowlist(patterns []string, logger zerolog.Logger, next http.Handler) http.Handler {
	allowed := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		allowed = append(allowed, p)
	}
	if len(allowed) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hostHeader := r.Header.Get("X-Forwarded-Host")
		if hostHeader == "" {
			hostHeader = r.Host
		}
		host := stripPort(hostHeader)
		if !hostAllowed(allowed, host) {
			logger.Warn().Str("host", host).Msg("blocked host")
			writeError(w, http.StatusForbidden, codeForbidden, "host not allowed")
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || !hostAllowed(allowed, strings.ToLower(u.Hostname())) {
				logger.Warn().Str("origin", origin).Msg("blocked origin")
				writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func stripPort(hostport string) string {
	host := hostport
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

func hostAllowed(patterns []string, host string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, "*.") {
			suffix := p[1:] // ".example.com"
			if strings.HasSuffix(host, suffix) && host != suffix[1:] {
				return true
			}
			continue
		}
		if host == p {
			return true
		}
	}
	return false
}
