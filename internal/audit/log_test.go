package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"phonebook.org/internal/auth"
	"phonebook.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := obs.SetLogger(zap.New(core))
	defer obs.SetLogger(prev)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{ID: "user-42", Username: "alice", Role: auth.RoleRead})

	if err := LogEvent(ctx, "auth.login", map[string]any{"outcome": "ok"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	entry := entries[0].ContextMap()
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "auth.login" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user"] != "alice" || entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user: %v %v", entry["user"], entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["outcome"] != "ok" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event")
	}
}

func TestWithRequestIDIgnoresBlank(t *testing.T) {
	ctx := context.Background()
	if WithRequestID(ctx, " ") != ctx {
		t.Fatal("blank request id should not change context")
	}
	if got := RequestIDFromContext(WithRequestID(ctx, " req-9 ")); got != "req-9" {
		t.Fatalf("request id = %q", got)
	}
}
