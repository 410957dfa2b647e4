package domain

import "time"

// Session records one successful login. Sessions are immutable after
// creation; expiry is evaluated against the clock, never written back.
type Session struct {
	ID               string
	UserID           string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	UserAgent        string
	IP               string
	CreatedAt        time.Time
}

// AccessValid reports whether the access token has not yet expired at now.
func (s *Session) AccessValid(now time.Time) bool {
	return s.AccessExpiresAt.After(now)
}

// Active reports whether either token of the session is still usable at now.
func (s *Session) Active(now time.Time) bool {
	return s.AccessExpiresAt.After(now) || s.RefreshExpiresAt.After(now)
}

// TokenPair holds freshly issued credentials for a session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID    string
	Username  string
	Role      Role
	SessionID string
}
