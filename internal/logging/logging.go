// Package logging wraps logrus with request-scoped fields (trace id, user id,
// role) carried through context.Context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	TraceIDKey ctxKey = "trace_id"
	UserIDKey  ctxKey = "user_id"
	RoleKey    ctxKey = "role"
)

// Logger is a service-scoped logrus entry.
type Logger struct {
	*logrus.Entry
	service string
}

// New builds a logger writing to stdout. format is "json" or "text".
func New(service, level, format string) *Logger {
	return NewWithWriter(service, level, format, os.Stdout)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(service, level, format string, w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Entry: base.WithField("service", service), service: service}
}

// NewDefault returns an info-level text logger.
func NewDefault(service string) *Logger {
	return New(service, "info", "text")
}

// Service returns the service name the logger was built for.
func (l *Logger) Service() string {
	return l.service
}

// Named returns a logger for a sub-component sharing the same sink.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", component), service: l.service}
}

// WithContext returns an entry carrying the request-scoped fields found in ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Entry.WithContext(ctx)
	if ctx == nil {
		return entry
	}
	fields := logrus.Fields{}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	if userID := GetUserID(ctx); userID != "" {
		fields["user_id"] = userID
	}
	if role := GetRole(ctx); role != "" {
		fields["role"] = role
	}
	if len(fields) == 0 {
		return entry
	}
	return entry.WithFields(fields)
}

// LogRequest writes one access-log line.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		entry.Error("request completed")
	case status >= 400:
		entry.Warn("request completed")
	default:
		entry.Info("request completed")
	}
}

// LogSecurityEvent records authentication and access-control events.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).WithFields(fields).WithField("security_event", event).Warn("security event")
}

// NewTraceID returns a fresh random trace id.
func NewTraceID() string {
	return uuid.NewString()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

func GetRole(ctx context.Context) string {
	return stringValue(ctx, RoleKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
