// Package systemd reports the daemon's lifecycle to the service manager
// through the sd_notify protocol. Every call is a no-op when the process is
// not started by systemd.
package systemd

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/onair/internal/logging"
)

// Notifier sends readiness, status and watchdog messages.
type Notifier struct {
	logger logging.Logger
}

// NewNotifier creates a notifier logging send failures to logger.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) send(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	return sent
}

// Ready reports that startup finished, with a status line.
func (n *Notifier) Ready(status string) bool {
	sent := n.send(daemon.SdNotifyReady + "\n" + statusLine(status))
	if sent {
		n.logger.Debug("Notified systemd of readiness")
	}
	return sent
}

// Status updates the status line shown by systemctl status.
func (n *Notifier) Status(status string) bool {
	return n.send(statusLine(status))
}

// Stopping reports that shutdown began.
func (n *Notifier) Stopping() bool {
	return n.send(daemon.SdNotifyStopping)
}

// Watchdog pings the service manager at half the configured watchdog
// interval until ctx is done. It returns at once when no watchdog is set.
func (n *Notifier) Watchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.logger.Info("Watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func statusLine(status string) string {
	return fmt.Sprintf("STATUS=%s", status)
}
