package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"tavola.app/internal/auth"
	"tavola.app/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(original) })
	return &buf
}

func TestLogEventCarriesRequestAndActor(t *testing.T) {
	buf := captureLog(t)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{AccountID: "acct-42", Role: auth.RoleAdmin})

	if err := LogEvent(ctx, "auth.login", map[string]any{"account_id": "acct-42"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line not valid JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != "auth.login" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "acct-42" {
		t.Fatalf("unexpected actor id: %v", entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["account_id"] != "acct-42" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventWithoutContext(t *testing.T) {
	buf := captureLog(t)

	if err := LogEvent(context.Background(), "auth.logout", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line not valid JSON: %v", err)
	}
	if _, present := entry["request_id"]; present {
		t.Fatal("request_id must be absent without one in context")
	}
	if _, present := entry["user_id"]; present {
		t.Fatal("user_id must be absent for anonymous events")
	}
	if fields, ok := entry["fields"].(map[string]any); !ok || len(fields) != 0 {
		t.Fatalf("expected empty fields object, got %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}
