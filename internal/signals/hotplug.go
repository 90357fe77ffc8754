package signals

import (
	"context"
	"log/slog"
	"time"

	"github.com/smazurov/onair/internal/events"
	"github.com/smazurov/onair/pkg/hotplug"
)

// DefaultSettle groups the burst of uevents one plug produces.
const DefaultSettle = time.Second

// Subsystems a light can appear on.
var lightSubsystems = []string{hotplug.SubsystemHIDRaw, hotplug.SubsystemUSB, hotplug.SubsystemLEDs}

// HotplugWatcher publishes one HotplugEvent per settle window of kernel
// add/remove events.
type HotplugWatcher struct {
	loop
	eventBus *events.Bus
	settle   time.Duration
	logger   *slog.Logger
}

// NewHotplugWatcher creates a watcher. A non-positive settle selects the
// default.
func NewHotplugWatcher(eventBus *events.Bus, settle time.Duration, logger *slog.Logger) *HotplugWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &HotplugWatcher{eventBus: eventBus, settle: settle, logger: logger}
}

// Stop ends the watcher.
func (w *HotplugWatcher) Stop() {
	w.stop()
}

// coalesce forwards the first event of each burst, counting the events that
// arrived within the settle window. It returns when in is closed, flushing a
// burst still inside its window.
func (w *HotplugWatcher) coalesce(ctx context.Context, in <-chan hotplug.Event) {
	var (
		first   hotplug.Event
		pending int
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case e, ok := <-in:
			if !ok {
				if pending > 0 {
					w.publish(first, pending)
				}
				return
			}
			w.logger.Debug("Device event", "action", e.Action, "subsystem", e.Subsystem, "dev", e.DevName)
			if pending == 0 {
				first = e
				timer = time.NewTimer(w.settle)
				fire = timer.C
			}
			pending++

		case <-fire:
			w.publish(first, pending)
			pending = 0
			timer = nil
			fire = nil
		}
	}
}

func (w *HotplugWatcher) publish(first hotplug.Event, batched int) {
	w.logger.Info("Light hot-plug detected",
		"action", first.Action,
		"subsystem", first.Subsystem,
		"dev", first.DevName,
		"events", batched)
	w.eventBus.Publish(events.HotplugEvent{
		Action:    first.Action,
		Subsystem: first.Subsystem,
		DevName:   first.DevName,
		Batched:   batched,
		Timestamp: timestamp(),
	})
}
