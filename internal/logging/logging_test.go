package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	log := New("api", "debug", "json")
	hook := test.NewLocal(log.Logger)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "42")
	ctx = WithRole(ctx, "admin")

	log.WithContext(ctx).Info("hello")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["trace_id"] != "trace-1" || entry.Data["user_id"] != "42" || entry.Data["role"] != "admin" {
		t.Fatalf("missing request fields: %v", entry.Data)
	}
	if entry.Data["service"] != "api" {
		t.Fatalf("service field = %v", entry.Data["service"])
	}
}

func TestLogRequestLevelByStatus(t *testing.T) {
	log := New("api", "info", "text")
	hook := test.NewLocal(log.Logger)

	log.LogRequest(context.Background(), http.MethodGet, "/api/users", http.StatusOK, time.Millisecond)
	log.LogRequest(context.Background(), http.MethodGet, "/api/users/9", http.StatusNotFound, time.Millisecond)
	log.LogRequest(context.Background(), http.MethodPost, "/api/users", http.StatusInternalServerError, time.Millisecond)

	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d level = %s, want %s", i, e.Level, want[i])
		}
	}
}

func TestJSONFormatWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("api", "info", "json", &buf)
	log.LogSecurityEvent(context.Background(), "login_failed", map[string]interface{}{"email": "a@b.c"})

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if decoded["security_event"] != "login_failed" {
		t.Fatalf("security_event = %v", decoded["security_event"])
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	log := New("api", "loud", "text")
	if log.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %s, want info", log.Logger.GetLevel())
	}
}
