package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"

	"github.com/zensushi/zen/pkg/httputil"
)

// PprofPrefix is where the profiling endpoints are mounted.
const PprofPrefix = "/debug/pprof"

// RegisterPprof mounts the net/http/pprof handlers under PprofPrefix,
// reachable only from allowedCIDRs. With no CIDRs nothing is mounted and
// the paths fall through to the router's 404.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	if len(allowedCIDRs) == 0 {
		return
	}

	sub := chi.NewRouter()
	sub.Use(IPAllowlist(allowedCIDRs, logger))
	sub.Get("/", pprof.Index)
	sub.Get("/cmdline", pprof.Cmdline)
	sub.Get("/profile", pprof.Profile)
	sub.HandleFunc("/symbol", pprof.Symbol)
	sub.Get("/trace", pprof.Trace)
	sub.Get("/{profile}", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler(chi.URLParam(r, "profile")).ServeHTTP(w, r)
	})
	r.Mount(PprofPrefix, sub)
}

type allowlist []*net.IPNet

func parseAllowlist(cidrs []string, logger *slog.Logger) allowlist {
	nets := make(allowlist, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("ignoring invalid allowlist CIDR",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func (a allowlist) allows(remoteAddr string) (string, bool) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return host, false
	}
	for _, n := range a {
		if n.Contains(ip) {
			return host, true
		}
	}
	return host, false
}

// IPAllowlist rejects with 403 any request whose RemoteAddr is outside
// cidrs. Invalid CIDRs are logged and skipped. Forwarding headers are not
// trusted.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	nets := parseAllowlist(cidrs, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if host, ok := nets.allows(r.RemoteAddr); !ok {
				logger.WarnContext(r.Context(), "request outside IP allowlist",
					slog.String("ip", host),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "FORBIDDEN",
						Message: "access restricted by IP allowlist",
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
