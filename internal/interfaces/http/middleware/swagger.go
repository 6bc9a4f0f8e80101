package middleware

import (
	"net/http"
	"net/netip"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/moa/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls access to the Swagger UI.
type SwaggerConfig struct {
	Enabled     bool     // serve the docs at all; disabled answers 404
	RequireAuth bool     // chain the JWT middleware in front of the docs
	AllowedIPs  []string // source allowlist, single addresses or CIDR; empty allows all
}

// SwaggerProtection gates the documentation endpoints. Disabled mode
// answers 404 so probes cannot tell the docs exist; a non-empty allowlist
// rejects other sources with 403; RequireAuth additionally runs the given
// JWT middleware. Allowlist and auth combine.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	allowlist := parseAllowlist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			resp := dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound,
				"API documentation is not available",
				c.GetString(RequestIDKey),
			)
			c.AbortWithStatusJSON(http.StatusNotFound, resp)
			return
		}

		// A configured allowlist that parsed to nothing still denies:
		// failing open on a typo would expose the docs to everyone.
		if len(cfg.AllowedIPs) > 0 {
			addr, ok := clientAddr(c)
			if !ok || !addrAllowed(addr, allowlist) {
				resp := dto.NewErrorResponseWithRequestID(
					dto.ErrCodeForbidden,
					"Access to API documentation is restricted",
					c.GetString(RequestIDKey),
				)
				c.AbortWithStatusJSON(http.StatusForbidden, resp)
				return
			}
		}

		if cfg.RequireAuth && jwtMiddleware != nil {
			jwtMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowlist turns configured entries into prefixes; single addresses
// become /32 or /128. Malformed entries are dropped.
func parseAllowlist(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

// clientAddr resolves the caller's address, preferring gin's ClientIP
// which honors the trusted proxy settings, then the raw remote address.
func clientAddr(c *gin.Context) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(c.ClientIP()); err == nil {
		return addr.Unmap(), true
	}
	if ap, err := netip.ParseAddrPort(c.Request.RemoteAddr); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(c.Request.RemoteAddr)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func addrAllowed(addr netip.Addr, allowlist []netip.Prefix) bool {
	return slices.ContainsFunc(allowlist, func(prefix netip.Prefix) bool {
		return prefix.Contains(addr)
	})
}
