package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSwagger(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwtMiddleware), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"docs": "ui"})
	})

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	w := serveSwagger(SwaggerConfig{Enabled: false}, nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestSwaggerProtection_Allowlist(t *testing.T) {
	tests := []struct {
		name       string
		allow      []string
		remoteAddr string
		want       int
	}{
		{name: "open when no allowlist", allow: nil, remoteAddr: "", want: http.StatusOK},
		{name: "exact address allowed", allow: []string{"127.0.0.1"}, remoteAddr: "127.0.0.1:51000", want: http.StatusOK},
		{name: "exact address denied", allow: []string{"10.0.0.1"}, remoteAddr: "192.168.1.1:51000", want: http.StatusForbidden},
		{name: "inside cidr", allow: []string{"10.0.0.0/8"}, remoteAddr: "10.50.100.200:51000", want: http.StatusOK},
		{name: "outside cidr", allow: []string{"10.0.0.0/8"}, remoteAddr: "192.168.1.1:51000", want: http.StatusForbidden},
		{name: "ipv6 loopback", allow: []string{"::1"}, remoteAddr: "[::1]:51000", want: http.StatusOK},
		// An allowlist of typos must deny, not fall open.
		{name: "malformed entries fail closed", allow: []string{"not-an-ip", "300.1.1.1"}, remoteAddr: "127.0.0.1:51000", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SwaggerConfig{Enabled: true, AllowedIPs: tt.allow}
			w := serveSwagger(cfg, nil, tt.remoteAddr)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
			}
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	allow := func(c *gin.Context) {
		c.Set(JWTUserIDKey, "doc-reader")
		c.Next()
	}

	t.Run("rejected token", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true}
		w := serveSwagger(cfg, deny, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepted token", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true}
		w := serveSwagger(cfg, allow, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nil middleware serves", func(t *testing.T) {
		cfg := SwaggerConfig{Enabled: true, RequireAuth: true}
		w := serveSwagger(cfg, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSwaggerProtection_AllowlistRunsBeforeAuth(t *testing.T) {
	allow := func(c *gin.Context) { c.Next() }
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	cfg := SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}}

	// Wrong source never reaches the JWT middleware.
	w := serveSwagger(cfg, allow, "192.168.1.1:51000")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Allowed source still needs a valid token.
	w = serveSwagger(cfg, deny, "127.0.0.1:51000")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serveSwagger(cfg, allow, "127.0.0.1:51000")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseAllowlist(t *testing.T) {
	prefixes := parseAllowlist([]string{"127.0.0.1", "10.0.0.0/8", "::1", "bogus", "300.1.1.1"})
	require.Len(t, prefixes, 3)

	assert.True(t, addrAllowed(netip.MustParseAddr("127.0.0.1"), prefixes))
	assert.True(t, addrAllowed(netip.MustParseAddr("10.200.3.4"), prefixes))
	assert.True(t, addrAllowed(netip.MustParseAddr("::1"), prefixes))
	assert.False(t, addrAllowed(netip.MustParseAddr("127.0.0.2"), prefixes))
	assert.False(t, addrAllowed(netip.MustParseAddr("11.0.0.1"), prefixes))
}
