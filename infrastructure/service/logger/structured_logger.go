package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the structured logging contract used across the service.
type Logger interface {
	Info(ctx context.Context, message string, fields map[string]interface{})
	Error(ctx context.Context, message string, err error, fields map[string]interface{})
	Warn(ctx context.Context, message string, fields map[string]interface{})
	Debug(ctx context.Context, message string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	memberIDKey      contextKey = "member_id"
)

// WithCorrelationID stores the request correlation id for later log entries.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithMemberID tags log entries of an authenticated request.
func WithMemberID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, memberIDKey, id)
}

type structuredLogger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

type LoggerConfig struct {
	Level       string
	Format      string
	ServiceName string
	Output      io.Writer
}

// NewStructuredLogger builds a logrus backed Logger.
func NewStructuredLogger(config LoggerConfig) Logger {
	logrusLogger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrusLogger.SetLevel(level)

	if config.Format == "json" {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logrusLogger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	}

	if config.Output != nil {
		logrusLogger.SetOutput(config.Output)
	} else {
		logrusLogger.SetOutput(os.Stdout)
	}

	return &structuredLogger{
		logger: logrusLogger,
		fields: logrus.Fields{"service": config.ServiceName},
	}
}

// NewNopLogger discards everything. Used by tests and tools.
func NewNopLogger() Logger {
	return NewStructuredLogger(LoggerConfig{Level: "panic", Output: io.Discard})
}

func (l *structuredLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Info(message)
}

func (l *structuredLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	l.entry(ctx, err, fields).Error(message)
}

func (l *structuredLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Warn(message)
}

func (l *structuredLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Debug(message)
}

func (l *structuredLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &structuredLogger{
		logger: l.logger,
		fields: merged,
	}
}

func (l *structuredLogger) entry(ctx context.Context, err error, fields map[string]interface{}) *logrus.Entry {
	all := make(logrus.Fields, len(l.fields)+len(fields)+4)
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}

	if ctx != nil {
		if id := CorrelationID(ctx); id != "" {
			all["correlation_id"] = id
		}
		if id, ok := ctx.Value(memberIDKey).(string); ok && id != "" {
			all["member_id"] = id
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			all["trace_id"] = sc.TraceID().String()
		}
	}

	if err != nil {
		all[logrus.ErrorKey] = err.Error()
	}

	// frame 2 is whoever called Info/Error/Warn/Debug
	if pc, file, line, ok := runtime.Caller(2); ok {
		all["caller"] = fmt.Sprintf("%s:%d %s", file, line, runtime.FuncForPC(pc).Name())
	}

	return l.logger.WithFields(all)
}

// LogAuthEvent records a session lifecycle event.
func LogAuthEvent(ctx context.Context, logger Logger, event string, memberID, ip string, success bool, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["event_type"] = "auth"
	fields["auth_event"] = event
	fields["member_id"] = memberID
	fields["success"] = success
	if ip != "" {
		fields["ip"] = ip
	}

	if success {
		logger.Info(ctx, fmt.Sprintf("Auth event: %s", event), fields)
		return
	}
	logger.Warn(ctx, fmt.Sprintf("Auth event failed: %s", event), fields)
}

// LogSecurityEvent records a security relevant event. Severity is HIGH, MEDIUM or LOW.
func LogSecurityEvent(ctx context.Context, logger Logger, event string, severity string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["event_type"] = "security"
	fields["security_event"] = event
	fields["severity"] = severity

	message := fmt.Sprintf("Security event: %s", event)

	switch severity {
	case "HIGH":
		logger.Error(ctx, message, nil, fields)
	case "MEDIUM":
		logger.Warn(ctx, message, fields)
	default:
		logger.Info(ctx, message, fields)
	}
}

func LogPerformance(ctx context.Context, logger Logger, operation string, duration time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["event_type"] = "performance"
	fields["operation"] = operation
	fields["duration_ms"] = duration.Milliseconds()

	logger.Debug(ctx, fmt.Sprintf("Performance: %s took %s", operation, duration), fields)
}
