package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-identity/internal/domain"
	"github.com/peoplehub/hr-identity/internal/identity"
	"github.com/peoplehub/hr-identity/internal/service"
	"github.com/peoplehub/hr-identity/pkg/response"
)

// APIKeyAuth adds claims to the request identity based on the API key
// header. It is additive-only: a request without the header passes through
// untouched, so the same pipeline serves key-authenticated service callers
// and interactively logged-in users. Only a present-but-unrecognized key is
// rejected.
//
// accepted is the process-wide allow-list, built once at startup.
func APIKeyAuth(headerName string, accepted map[string]struct{}, keys service.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(headerName)
		if secret == "" {
			c.Next()
			return
		}

		if _, ok := accepted[secret]; !ok {
			response.Error(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key", "")
			c.Abort()
			return
		}

		key, err := keys.Authorize(c.Request.Context(), secret)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "KEY_LOOKUP_FAILED", err.Error(), "")
			c.Abort()
			return
		}

		// A recognized but disabled key is an administrative soft-revocation:
		// the request proceeds with no claims attached.
		if key.Enabled {
			claims := make([]domain.Claim, 0, 1+len(key.Rights))
			claims = append(claims, domain.Claim{Name: identity.ClaimAPIKey, Value: secret})
			claims = append(claims, key.Rights...)
			identity.Attach(c, identity.Identity{
				Source: identity.SourceAPIKey,
				Claims: claims,
			})
		}

		c.Next()
	}
}
