package signals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/smazurov/onair/internal/events"
)

const (
	login1Dest        = "org.freedesktop.login1"
	login1Path        = dbus.ObjectPath("/org/freedesktop/login1")
	login1Manager     = "org.freedesktop.login1.Manager"
	login1Session     = "org.freedesktop.login1.Session"
	propertiesIface   = "org.freedesktop.DBus.Properties"
	propertiesChanged = propertiesIface + ".PropertiesChanged"
)

// ErrNoSession means the process does not belong to a logind session.
var ErrNoSession = errors.New("no logind session")

// SessionWatcher follows the lock state of the logind session this process
// runs in.
type SessionWatcher struct {
	loop
	eventBus *events.Bus
	logger   *slog.Logger
}

// NewSessionWatcher creates a watcher.
func NewSessionWatcher(eventBus *events.Bus, logger *slog.Logger) *SessionWatcher {
	return &SessionWatcher{eventBus: eventBus, logger: logger}
}

// sessionConn is one system bus connection subscribed to one session.
type sessionConn struct {
	conn    *dbus.Conn
	session dbus.BusObject
	path    dbus.ObjectPath
	signals chan *dbus.Signal
}

// Start follows the session in the background. Connecting, including the
// first attempt, is retried with backoff until ctx ends, so logind starting
// after the daemon is fine.
func (w *SessionWatcher) Start(ctx context.Context) error {
	w.start(ctx, func(ctx context.Context) {
		sc, err := dial(ctx, w.logger, "Session lock tracking", w.connect)
		if err != nil {
			return
		}
		w.logger.Info("Session lock tracking started", "session", sc.path)

		for {
			w.follow(ctx, sc)
			_ = sc.conn.Close()
			if ctx.Err() != nil {
				return
			}

			w.logger.Warn("Lost system bus connection, reconnecting")
			if sc, err = dial(ctx, w.logger, "System bus", w.connect); err != nil {
				return
			}
			w.logger.Info("System bus reconnected", "session", sc.path)
		}
	})
	return nil
}

// Stop ends the watcher.
func (w *SessionWatcher) Stop() {
	w.stop()
}

func (w *SessionWatcher) connect() (*sessionConn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	path, err := ownSession(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(login1Session),
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("match session signals: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("match session properties: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	return &sessionConn{
		conn:    conn,
		session: conn.Object(login1Dest, path),
		path:    path,
		signals: signals,
	}, nil
}

// ownSession resolves the session of this process, falling back to
// XDG_SESSION_ID for services started outside a session scope.
func ownSession(conn *dbus.Conn) (dbus.ObjectPath, error) {
	manager := conn.Object(login1Dest, login1Path)

	var path dbus.ObjectPath
	err := manager.Call(login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
	if err == nil {
		return path, nil
	}

	id := os.Getenv("XDG_SESSION_ID")
	if id == "" {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if err := manager.Call(login1Manager+".GetSession", 0, id).Store(&path); err != nil {
		return "", fmt.Errorf("%w: session %s: %v", ErrNoSession, id, err)
	}
	return path, nil
}

// follow publishes the current lock state, then every change, until the
// connection drops or ctx ends.
func (w *SessionWatcher) follow(ctx context.Context, sc *sessionConn) {
	w.publishLockedHint(sc)

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sc.signals:
			if !ok {
				return
			}
			reason, recheck, matched := classifySessionSignal(sig)
			switch {
			case recheck:
				w.publishLockedHint(sc)
			case matched:
				w.publish(reason)
			}
		}
	}
}

func (w *SessionWatcher) publishLockedHint(sc *sessionConn) {
	v, err := sc.session.GetProperty(login1Session + ".LockedHint")
	if err != nil {
		w.logger.Warn("Cannot read session lock state", "error", err)
		return
	}
	locked, ok := v.Value().(bool)
	if !ok {
		return
	}
	w.publish(lockReason(locked))
}

func (w *SessionWatcher) publish(reason events.SessionReason) {
	w.logger.Info("Session changed", "reason", string(reason), "locked", reason.Locked())
	w.eventBus.Publish(events.SessionEvent{Reason: reason, Timestamp: timestamp()})
}

func lockReason(locked bool) events.SessionReason {
	if locked {
		return events.SessionLock
	}
	return events.SessionUnlock
}

// classifySessionSignal maps a logind session signal to a reason. recheck
// asks the caller to re-read LockedHint: a session becoming active again may
// still be locked.
func classifySessionSignal(sig *dbus.Signal) (reason events.SessionReason, recheck, matched bool) {
	switch sig.Name {
	case login1Session + ".Lock":
		return events.SessionLock, false, true
	case login1Session + ".Unlock":
		return events.SessionUnlock, false, true
	case propertiesChanged:
	default:
		return "", false, false
	}

	if len(sig.Body) < 2 {
		return "", false, false
	}
	if iface, _ := sig.Body[0].(string); iface != login1Session {
		return "", false, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false, false
	}

	if v, ok := changed["LockedHint"]; ok {
		if locked, ok := v.Value().(bool); ok {
			return lockReason(locked), false, true
		}
	}
	if v, ok := changed["Active"]; ok {
		if active, ok := v.Value().(bool); ok {
			if !active {
				return events.ConsoleDisconnect, false, true
			}
			return "", true, false
		}
	}
	return "", false, false
}
