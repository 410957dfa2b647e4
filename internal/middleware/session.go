package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/identity"
	"github.com/peoplehub/hr-identity/internal/service"
	"github.com/peoplehub/hr-identity/pkg/response"
)

const bearerPrefix = "Bearer "

// SessionAuth requires a valid access token and attaches the session-derived
// identity to the request.
func SessionAuth(users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required", "")
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format", "")
			c.Abort()
			return
		}
		token := authHeader[len(bearerPrefix):]

		claims, err := users.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", "")
			c.Abort()
			return
		}

		identity.Attach(c, identity.Identity{
			Source: identity.SourceSession,
			Claims: []domain.Claim{
				{Name: identity.ClaimUserID, Value: claims.UserID},
				{Name: identity.ClaimUsername, Value: claims.Username},
				{Name: identity.ClaimRole, Value: string(claims.Role)},
				{Name: identity.ClaimSessionID, Value: claims.SessionID},
			},
		})
		c.Next()
	}
}
