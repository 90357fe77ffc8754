// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"led": "debug", // Per-module overrides
//			"api": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("led").With("family", "luxafor")
//	logger.Info("Device opened")  // Includes family in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → both, through a fanout handler
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t onair              # All onair logs
//	journalctl -t onair -f           # Follow live
//	journalctl -t onair --since "5m" # Last 5 minutes
//	journalctl -t onair -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t onair MODULE=signals
//	journalctl -t onair FAMILY=luxafor
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	led = "debug"
//	api = "warn"
//	mic = "error"
//
// # Log History
//
// Every record also lands in a ring buffer of the last 1000 entries, read via
// [GetBuffer]. A callback registered with [SetLogCallback] sees each entry as
// it is written; the daemon uses it to feed the log stream endpoint.
//
// # Runtime Levels
//
// Each module logger reads its level from a [slog.LevelVar], so [SetLevel]
// takes effect on loggers already handed out. [Levels] reports what every
// module is currently using.
package logging
