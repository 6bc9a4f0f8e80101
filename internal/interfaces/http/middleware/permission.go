package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moa/backend/internal/infrastructure/auth"
	"github.com/moa/backend/internal/interfaces/http/dto"
)

// PermissionConfig carries optional collaborators for the permission
// middlewares. A nil Logger silences pass and deny logging.
type PermissionConfig struct {
	Logger *zap.Logger
}

// CheckPermissionFunc decides access from the verified claims and the
// request. It backs RequireCustomPermission for rules plain permission
// codes cannot express, ownership checks in particular.
type CheckPermissionFunc func(claims *auth.Claims, c *gin.Context) bool

// RequirePermission gates a route on a single permission code.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission admits holders of at least one listed permission.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with logging.
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return guard(cfg, permissions, func(claims *auth.Claims, _ *gin.Context) bool {
		return claims.HasAnyPermission(permissions...)
	})
}

// RequireAllPermissions admits only holders of every listed permission.
// Used where one operation spans privilege domains, such as assigning
// roles, which needs both users.manage_roles and roles.read.
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return RequireAllPermissionsWithConfig(PermissionConfig{}, permissions...)
}

// RequireAllPermissionsWithConfig is RequireAllPermissions with logging.
func RequireAllPermissionsWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return guard(cfg, permissions, func(claims *auth.Claims, _ *gin.Context) bool {
		return claims.HasAllPermissions(permissions...)
	})
}

// RequireCustomPermission gates a route on an arbitrary claims check.
func RequireCustomPermission(check CheckPermissionFunc) gin.HandlerFunc {
	return RequireCustomPermissionWithConfig(check, PermissionConfig{})
}

// RequireCustomPermissionWithConfig is RequireCustomPermission with logging.
func RequireCustomPermissionWithConfig(check CheckPermissionFunc, cfg PermissionConfig) gin.HandlerFunc {
	return guard(cfg, []string{"custom"}, check)
}

// RequireResource derives the permission from the HTTP method: GET needs
// resource.read, POST resource.create, PUT and PATCH resource.update,
// DELETE resource.delete. It suits plain CRUD groups; lifecycle actions
// (publish, ship, manage_stock, ...) have no method mapping and use
// RequirePermission with the explicit code.
func RequireResource(resource string) gin.HandlerFunc {
	return RequireResourceWithConfig(resource, PermissionConfig{})
}

// RequireResourceWithConfig is RequireResource with logging.
func RequireResourceWithConfig(resource string, cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		permission := resource + "." + methodToAction(c.Request.Method)
		required := []string{permission}

		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			deny(c, cfg, required, "no authentication claims")
		case !claims.HasPermission(permission):
			deny(c, cfg, required, "missing resource permission")
		default:
			if cfg.Logger != nil {
				cfg.Logger.Debug("Permission check passed",
					zap.String("user_id", claims.UserID),
					zap.Strings("required", required),
				)
			}
			c.Next()
		}
	}
}

// guard is the shared resolve-claims / check / deny skeleton behind the
// Require* middlewares.
func guard(cfg PermissionConfig, required []string, allowed func(*auth.Claims, *gin.Context) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, cfg, required, "no authentication claims")
			return
		}
		if !allowed(claims, c) {
			deny(c, cfg, required, "permission check failed")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Permission check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required", required),
			)
		}
		c.Next()
	}
}

// deny logs the refusal and answers 403 with the canonical error body.
func deny(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		var userID string
		var held []string
		if claims := GetJWTClaims(c); claims != nil {
			userID = claims.UserID
			held = claims.Permissions
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required", required),
			zap.Strings("held", held),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden,
		"Access denied: insufficient permissions", c.GetString(RequestIDKey))
	c.AbortWithStatusJSON(http.StatusForbidden, resp)
}

// methodToAction maps an HTTP method onto the CRUD action vocabulary of
// the permission catalog. Unknown methods read, never write.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// HasPermission reports whether the authenticated caller holds the
// permission. Handlers use it to shape responses, not to gate routes.
func HasPermission(c *gin.Context, permission string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasPermission(permission)
}

// HasAnyPermission reports whether the caller holds at least one of the
// listed permissions.
func HasAnyPermission(c *gin.Context, permissions ...string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasAnyPermission(permissions...)
}
