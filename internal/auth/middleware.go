package auth

import (
	"net/http"
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// anonymous is the caller when authentication is disabled.
var anonymous = Principal{Role: RoleAdmin, Permissions: RoleAdmin.Permissions()}

// Middleware authenticates the bearer token of every request.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Enabled() {
			c.Set(principalKey, anonymous)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		principal, err := s.Authenticate(c.Request.Context(), parts[1], c.ClientIP(), c.GetHeader("User-Agent"))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequirePermission rejects callers lacking the permission.
func RequirePermission(required Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusForbidden, "No permissions found", nil)
			return
		}

		if !principal.Has(required) {
			abort(c, http.StatusForbidden, "Insufficient permissions", gin.H{"required": required})
			return
		}

		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func abort(c *gin.Context, status int, message string, details any) {
	c.AbortWithStatusJSON(status, types.NewErrorResponse(types.ErrorCode(types.AreaAuth, status), message, details))
}
