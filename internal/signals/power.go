package signals

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/login1"
	"github.com/godbus/dbus/v5"
	"github.com/smazurov/onair/internal/events"
)

// DefaultSleepDelay bounds how long suspend waits for the lights. logind
// caps it again with InhibitDelayMaxSec.
const DefaultSleepDelay = 3 * time.Second

// PowerWatcher publishes suspend and resume from logind's PrepareForSleep.
// It holds a delay inhibitor for sleep while awake; the suspend event carries
// its release so the lights go off before the system sleeps.
type PowerWatcher struct {
	loop
	eventBus   *events.Bus
	sleepDelay time.Duration
	logger     *slog.Logger
}

// NewPowerWatcher creates a watcher.
func NewPowerWatcher(eventBus *events.Bus, logger *slog.Logger) *PowerWatcher {
	return &PowerWatcher{eventBus: eventBus, sleepDelay: DefaultSleepDelay, logger: logger}
}

// inhibitor takes logind inhibitor locks. *login1.Conn implements it.
type inhibitor interface {
	Inhibit(what, who, why, mode string) (*os.File, error)
}

type sleepConn struct {
	conn    *login1.Conn
	signals chan *dbus.Signal
}

func connectSleep() (*sleepConn, error) {
	conn, err := login1.New()
	if err != nil {
		return nil, fmt.Errorf("connect logind: %w", err)
	}
	return &sleepConn{conn: conn, signals: conn.Subscribe("PrepareForSleep")}, nil
}

// Start follows PrepareForSleep in the background. Connecting, including the
// first attempt, is retried with backoff until ctx ends.
func (w *PowerWatcher) Start(ctx context.Context) error {
	w.start(ctx, func(ctx context.Context) {
		sc, err := dial(ctx, w.logger, "Suspend tracking", connectSleep)
		if err != nil {
			return
		}
		w.logger.Info("Suspend tracking started")

		for {
			w.follow(ctx, sc.signals, sc.conn)
			sc.conn.Close()
			if ctx.Err() != nil {
				return
			}

			w.logger.Warn("Lost logind connection, reconnecting")
			if sc, err = dial(ctx, w.logger, "Logind", connectSleep); err != nil {
				return
			}
			w.logger.Info("Logind reconnected")
		}
	})
	return nil
}

// Stop ends the watcher.
func (w *PowerWatcher) Stop() {
	w.stop()
}

// follow publishes power transitions until the signal channel closes or ctx
// ends. A sleep delay lock is held whenever the system is awake.
func (w *PowerWatcher) follow(ctx context.Context, signals <-chan *dbus.Signal, inh inhibitor) {
	release := w.inhibit(inh)
	defer func() {
		if release != nil {
			release()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			code, ok := powerCode(sig)
			if !ok {
				continue
			}
			w.logger.Info("Power transition", "event", code.String())

			e := events.PowerEvent{Code: code, Timestamp: timestamp()}
			switch code {
			case events.PowerSuspend:
				if release != nil {
					e.Release = release
					time.AfterFunc(w.sleepDelay, release)
					release = nil
				}
			case events.PowerResume:
				if release == nil {
					release = w.inhibit(inh)
				}
			}
			w.eventBus.Publish(e)
		}
	}
}

// inhibit takes a delay lock for sleep. The returned func drops it and is
// safe to call more than once. It returns nil when no lock was taken.
func (w *PowerWatcher) inhibit(inh inhibitor) func() {
	f, err := inh.Inhibit("sleep", "onair", "Turn the status light off", "delay")
	if err != nil {
		w.logger.Warn("Cannot delay sleep, lights may stay on while suspended", "error", err)
		return nil
	}
	w.logger.Debug("Sleep delay lock taken")

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := f.Close(); err != nil {
				w.logger.Debug("Failed to drop sleep delay lock", "error", err)
				return
			}
			w.logger.Debug("Sleep delay lock released")
		})
	}
}

// powerCode maps PrepareForSleep(true) to suspend and (false) to resume.
func powerCode(sig *dbus.Signal) (events.PowerCode, bool) {
	if sig == nil || len(sig.Body) < 1 {
		return 0, false
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return 0, false
	}
	if sleeping {
		return events.PowerSuspend, true
	}
	return events.PowerResume, true
}
