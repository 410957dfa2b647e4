package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/identity"
	"github.com/peoplehub/hr-identity/pkg/response"
)

// AdminOnly rejects requests whose identity does not carry the admin role.
// Must run after SessionAuth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity.Authenticated(c) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "")
			c.Abort()
			return
		}
		if identity.Get(c, identity.ClaimRole, string(domain.RoleNone)) != string(domain.RoleAdmin) {
			response.Forbidden(c, "Only admins can access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}
