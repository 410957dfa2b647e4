// Package audit emits authentication audit events. Recording is best-effort
// and must never block or fail the request being audited.
package audit

import (
	"context"
	"time"
)

// Event types.
const (
	EventLoginSucceeded = "auth.login.succeeded"
	EventLoginFailed    = "auth.login.failed"
	EventRoleChanged    = "auth.role.changed"
)

// Event is one auditable authentication fact. Events never carry secrets:
// no passwords, hashes, or token values.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	IP         string    `json:"ip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder records audit events.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoginSucceeded builds the event for a successful login.
func LoginSucceeded(userID, username, sessionID, ip string) Event {
	return Event{
		Type:       EventLoginSucceeded,
		UserID:     userID,
		Username:   username,
		SessionID:  sessionID,
		IP:         ip,
		OccurredAt: time.Now().UTC(),
	}
}

// LoginFailed builds the event for a rejected login attempt.
func LoginFailed(username, ip string) Event {
	return Event{
		Type:       EventLoginFailed,
		Username:   username,
		IP:         ip,
		OccurredAt: time.Now().UTC(),
	}
}

// RoleChanged builds the event for a role update.
func RoleChanged(userID, role string) Event {
	return Event{
		Type:       EventRoleChanged,
		UserID:     userID,
		Role:       role,
		OccurredAt: time.Now().UTC(),
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) {}

// Nop returns a Recorder that drops every event. Used when no brokers are
// configured.
func Nop() Recorder {
	return nopRecorder{}
}
