package log

import (
	"context"
	"log/slog"
	"time"
)

// Request is one HTTP exchange as the access log sees it.
type Request struct {
	ID        string
	Method    string
	Path      string
	Query     string
	UserAgent string
	ClientIP  string
}

// AccessLogger writes a line when a request starts and another when it
// completes, at a level matching the response status.
type AccessLogger struct {
	logger *Logger
}

func NewAccessLogger(logger *Logger) *AccessLogger {
	if logger == nil {
		logger = Discard()
	}
	return &AccessLogger{logger: logger}
}

func (a *AccessLogger) Started(ctx context.Context, req Request) {
	args := []any{
		FieldRequestID, req.ID,
		FieldMethod, req.Method,
		FieldPath, req.Path,
		FieldClientIP, req.ClientIP,
	}
	if req.Query != "" {
		args = append(args, FieldQuery, req.Query)
	}
	if req.UserAgent != "" {
		args = append(args, FieldUserAgent, req.UserAgent)
	}
	a.logger.InfoContext(ctx, "HTTP request started", args...)
}

func (a *AccessLogger) Finished(ctx context.Context, req Request, status int, elapsed time.Duration) {
	a.logger.Log(ctx, StatusLevel(status), "HTTP request completed", a.logger.args([]any{
		FieldRequestID, req.ID,
		FieldMethod, req.Method,
		FieldPath, req.Path,
		FieldClientIP, req.ClientIP,
		FieldStatusCode, status,
		FieldDuration, elapsed.Milliseconds(),
		FieldDurationHuman, elapsed.Round(time.Microsecond).String(),
		FieldSuccess, status < 400,
	})...)
}

// StatusLevel is Info for success, Warn for client errors and Error for
// server errors.
func StatusLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
