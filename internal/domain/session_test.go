package domain

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
		ok    bool
	}{
		{"none", RoleNone, true},
		{"user", RoleUser, true},
		{"admin", RoleAdmin, true},
		{"Admin", RoleNone, false},
		{"superuser", RoleNone, false},
		{"", RoleNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSessionExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("access valid before expiry", func(t *testing.T) {
		s := &Session{AccessExpiresAt: now.Add(time.Minute)}
		if !s.AccessValid(now) {
			t.Error("AccessValid() = false, want true")
		}
	})

	t.Run("access invalid at and after expiry", func(t *testing.T) {
		s := &Session{AccessExpiresAt: now}
		if s.AccessValid(now) {
			t.Error("AccessValid() at the instant of expiry = true, want false")
		}
		s.AccessExpiresAt = now.Add(-time.Minute)
		if s.AccessValid(now) {
			t.Error("AccessValid() past expiry = true, want false")
		}
	})

	t.Run("active while either token lives", func(t *testing.T) {
		s := &Session{
			AccessExpiresAt:  now.Add(-time.Hour),
			RefreshExpiresAt: now.Add(time.Hour),
		}
		if !s.Active(now) {
			t.Error("Active() with live refresh token = false, want true")
		}

		s.RefreshExpiresAt = now.Add(-time.Minute)
		if s.Active(now) {
			t.Error("Active() with both tokens expired = true, want false")
		}
	})
}
