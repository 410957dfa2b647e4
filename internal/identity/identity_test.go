package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/peoplehub/hr-identity/internal/domain"
)

func testContext() *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	return c
}

func TestAttach(t *testing.T) {
	t.Run("bundles accumulate in attach order", func(t *testing.T) {
		c := testContext()
		Attach(c, Identity{Source: SourceAPIKey, Claims: []domain.Claim{{Name: ClaimAPIKey, Value: "k1"}}})
		Attach(c, Identity{Source: SourceSession, Claims: []domain.Claim{{Name: ClaimUserID, Value: "u1"}}})

		bundles := FromContext(c)
		if len(bundles) != 2 {
			t.Fatalf("bundles = %d, want 2", len(bundles))
		}
		if bundles[0].Source != SourceAPIKey || bundles[1].Source != SourceSession {
			t.Errorf("bundle order = %q, %q", bundles[0].Source, bundles[1].Source)
		}

		claims := Claims(c)
		if len(claims) != 2 {
			t.Fatalf("claims = %d, want 2", len(claims))
		}
	})

	t.Run("claims are copied on attach", func(t *testing.T) {
		c := testContext()
		src := []domain.Claim{{Name: ClaimAPIKey, Value: "k1"}}
		Attach(c, Identity{Source: SourceAPIKey, Claims: src})

		src[0].Value = "mutated"

		if got := Get(c, ClaimAPIKey, ""); got != "k1" {
			t.Errorf("Get() = %q, want %q", got, "k1")
		}
	})
}

func TestGet(t *testing.T) {
	c := testContext()
	Attach(c, Identity{Source: SourceAPIKey, Claims: []domain.Claim{
		{Name: ClaimRole, Value: "user"},
	}})
	Attach(c, Identity{Source: SourceSession, Claims: []domain.Claim{
		{Name: ClaimRole, Value: "admin"},
	}})

	t.Run("returns the first match across bundles", func(t *testing.T) {
		if got := Get(c, ClaimRole, "none"); got != "user" {
			t.Errorf("Get() = %q, want %q", got, "user")
		}
	})

	t.Run("falls back when absent", func(t *testing.T) {
		if got := Get(c, ClaimUsername, "anonymous"); got != "anonymous" {
			t.Errorf("Get() = %q, want %q", got, "anonymous")
		}
	})

	t.Run("falls back on a bare context", func(t *testing.T) {
		bare := testContext()
		if got := Get(bare, ClaimUserID, "none"); got != "none" {
			t.Errorf("Get() = %q, want %q", got, "none")
		}
	})
}

func TestAuthenticated(t *testing.T) {
	t.Run("false with no bundles", func(t *testing.T) {
		if Authenticated(testContext()) {
			t.Error("Authenticated() = true, want false")
		}
	})

	t.Run("false with only api key bundles", func(t *testing.T) {
		c := testContext()
		Attach(c, Identity{Source: SourceAPIKey, Claims: []domain.Claim{{Name: ClaimAPIKey, Value: "k1"}}})
		if Authenticated(c) {
			t.Error("Authenticated() = true, want false")
		}
	})

	t.Run("true once a session bundle is present", func(t *testing.T) {
		c := testContext()
		Attach(c, Identity{Source: SourceAPIKey, Claims: []domain.Claim{{Name: ClaimAPIKey, Value: "k1"}}})
		Attach(c, Identity{Source: SourceSession, Claims: []domain.Claim{{Name: ClaimUserID, Value: "u1"}}})
		if !Authenticated(c) {
			t.Error("Authenticated() = false, want true")
		}
	})
}
