package dto

import (
	"time"

	"github.com/peoplehub/hr-identity/internal/domain"
)

// LoginRequest is the body of POST /Login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the user together with the tokens of the session
// created by the login.
type LoginResponse struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	SessionID        string    `json:"sessionId"`
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// SessionResponse is one session as exposed over HTTP. Token values are
// never echoed back outside the login that created them.
type SessionResponse struct {
	ID               string    `json:"id"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SessionStateResponse answers "what sessions do I have" for the caller.
type SessionStateResponse struct {
	ID             string            `json:"id"`
	HasSession     bool              `json:"hasSession"`
	Username       string            `json:"username"`
	Role           string            `json:"role"`
	ActiveSessions []SessionResponse `json:"activeSessions"`
}

// UserResponse is the user detail returned to admins and after role updates.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt"`
}

// ToSessionResponse maps a domain session to its HTTP shape.
func ToSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		ID:               s.ID,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshExpiresAt: s.RefreshExpiresAt,
		CreatedAt:        s.CreatedAt,
	}
}

// ToUserResponse maps a domain user to its HTTP shape.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
