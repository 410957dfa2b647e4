package audit

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func TestEventConstructors(t *testing.T) {
	t.Run("login succeeded", func(t *testing.T) {
		ev := LoginSucceeded("u1", "alice", "s1", "10.0.0.1")
		if ev.Type != EventLoginSucceeded {
			t.Errorf("Type = %q", ev.Type)
		}
		if ev.UserID != "u1" || ev.Username != "alice" || ev.SessionID != "s1" || ev.IP != "10.0.0.1" {
			t.Errorf("event = %+v", ev)
		}
		if ev.OccurredAt.IsZero() {
			t.Error("OccurredAt not set")
		}
	})

	t.Run("login failed carries no user id", func(t *testing.T) {
		ev := LoginFailed("alice", "10.0.0.1")
		if ev.Type != EventLoginFailed {
			t.Errorf("Type = %q", ev.Type)
		}
		if ev.UserID != "" || ev.SessionID != "" {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("role changed", func(t *testing.T) {
		ev := RoleChanged("u1", "admin")
		if ev.Type != EventRoleChanged || ev.UserID != "u1" || ev.Role != "admin" {
			t.Errorf("event = %+v", ev)
		}
	})
}

func TestEventJSONOmitsEmptyFields(t *testing.T) {
	payload, err := json.Marshal(LoginFailed("alice", "10.0.0.1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, absent := range []string{"user_id", "session_id", "role"} {
		if _, ok := raw[absent]; ok {
			t.Errorf("field %q serialized for a failed login", absent)
		}
	}
}

func TestNopRecorder(t *testing.T) {
	// Must accept any event without side effects.
	Nop().Record(context.Background(), LoginSucceeded("u1", "alice", "s1", ""))
}

func TestKafkaRecorder_NilSafety(t *testing.T) {
	t.Run("empty brokers yield no recorder and no error", func(t *testing.T) {
		r, err := NewKafkaRecorder(nil, "audit", zap.NewNop())
		if err != nil {
			t.Fatalf("NewKafkaRecorder() error = %v", err)
		}
		if r != nil {
			t.Fatal("NewKafkaRecorder() with no brokers should return nil")
		}
	})

	t.Run("empty topic yields no recorder and no error", func(t *testing.T) {
		r, err := NewKafkaRecorder([]string{"localhost:9092"}, "", zap.NewNop())
		if err != nil {
			t.Fatalf("NewKafkaRecorder() error = %v", err)
		}
		if r != nil {
			t.Fatal("NewKafkaRecorder() with no topic should return nil")
		}
	})

	t.Run("nil recorder methods are no-ops", func(t *testing.T) {
		var r *KafkaRecorder
		r.Record(context.Background(), LoginFailed("alice", ""))
		r.Close(context.Background())
	})
}
