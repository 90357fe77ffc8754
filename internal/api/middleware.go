package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/onair/internal/logging"
)

// quietPaths are polled by health checks and dashboards; their successes log
// at debug.
var quietPaths = map[string]bool{
	"/api/health": true,
	"/api/status": true,
}

// HTTPLoggingMiddleware logs each request at a level chosen from its status
// code. Event streams log once when the client goes away.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	path := ctx.URL().Path

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if ua := ctx.Header("User-Agent"); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	next(ctx)

	status := ctx.Status()
	attrs = append(attrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	message := "HTTP request completed"
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	case strings.HasSuffix(path, "/stream") || path == "/api/events":
		message = "Event stream closed"
		level = slog.LevelDebug
	case quietPaths[path] && method == "GET":
		level = slog.LevelDebug
	}
	logger.LogAttrs(ctx.Context(), level, message, attrs...)
}
