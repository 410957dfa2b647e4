// Package identity carries the per-request accumulation of claims. Each
// authentication source (API key, session token) attaches one immutable
// bundle; downstream authorization reads the merged set. Nothing here is
// ever persisted.
package identity

import (
	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-identity/internal/domain"
)

// Sources of identity bundles.
const (
	SourceAPIKey  = "ApiKey"
	SourceSession = "Session"
)

// Reserved claim names.
const (
	ClaimAPIKey    = "ApiKey"
	ClaimUserID    = "UserID"
	ClaimUsername  = "Username"
	ClaimRole      = "Role"
	ClaimSessionID = "SessionID"
)

const contextKey = "request_identity"

// Identity is one bundle of claims from a single source.
type Identity struct {
	Source string
	Claims []domain.Claim
}

// Attach appends a bundle to the request's identity. Bundles are copied on
// attach so a caller cannot mutate claims after the fact.
func Attach(c *gin.Context, id Identity) {
	claims := make([]domain.Claim, len(id.Claims))
	copy(claims, id.Claims)
	id.Claims = claims

	bundles := bundles(c)
	c.Set(contextKey, append(bundles, id))
}

// FromContext returns all bundles attached to the request, in attach order.
func FromContext(c *gin.Context) []Identity {
	return bundles(c)
}

// Claims returns a flat copy of every claim attached to the request.
func Claims(c *gin.Context) []domain.Claim {
	var out []domain.Claim
	for _, b := range bundles(c) {
		out = append(out, b.Claims...)
	}
	return out
}

// Get returns the value of the first claim with the given name, or the
// fallback when no source attached one.
func Get(c *gin.Context, name, fallback string) string {
	for _, b := range bundles(c) {
		for _, cl := range b.Claims {
			if cl.Name == name {
				return cl.Value
			}
		}
	}
	return fallback
}

// Authenticated reports whether a session-sourced bundle is present. API-key
// claims alone do not make a request an authenticated user.
func Authenticated(c *gin.Context) bool {
	for _, b := range bundles(c) {
		if b.Source == SourceSession {
			return true
		}
	}
	return false
}

func bundles(c *gin.Context) []Identity {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	ids, ok := v.([]Identity)
	if !ok {
		return nil
	}
	return ids
}
