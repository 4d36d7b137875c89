package middleware

import (
	"net/http"
	"strings"

	"resource-locator/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// AuthMiddleware requires a valid "Bearer <jwt>" Authorization header signed
// with secret.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Read the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Authorization token missing", nil)
			c.Abort()
			return
		}

		// 2. Expect "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Malformed authorization header", nil)
			c.Abort()
			return
		}

		// 3. Validate signature and expiry
		claims, err := utils.ValidateToken(secret, parts[1])
		if err != nil {
			utils.APIResponse(c, http.StatusUnauthorized, false, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// AdminOnly rejects requests whose token does not carry the admin role.
// It must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != utils.RoleAdmin {
			utils.APIResponse(c, http.StatusForbidden, false, "Access denied: admins only", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
