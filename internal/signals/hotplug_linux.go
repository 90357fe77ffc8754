//go:build linux

package signals

import (
	"context"
	"errors"

	"github.com/smazurov/onair/pkg/hotplug"
)

// Start follows the uevent socket in the background. A socket that fails is
// reopened with backoff, followed by a rescan for the events it missed.
func (w *HotplugWatcher) Start(ctx context.Context) error {
	w.start(ctx, func(ctx context.Context) {
		monitor, err := dial(ctx, w.logger, "Hot-plug monitoring", openLightMonitor)
		if err != nil {
			return
		}
		w.logger.Info("Hot-plug monitoring started", "subsystems", lightSubsystems, "settle", w.settle)

		for {
			runErr := w.watch(ctx, monitor)
			_ = monitor.Close()
			if ctx.Err() != nil {
				return
			}

			w.logger.Error("Hot-plug monitor failed, reopening", "error", runErr)
			if monitor, err = dial(ctx, w.logger, "Uevent socket", openLightMonitor); err != nil {
				return
			}
			w.logger.Info("Hot-plug monitoring reopened")
			w.publish(hotplug.Event{Action: hotplug.ActionOverrun}, 1)
		}
	})
	return nil
}

func openLightMonitor() (*hotplug.Monitor, error) {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		return nil, err
	}
	monitor.FilterSubsystems(lightSubsystems...)
	monitor.FilterActions(hotplug.ActionAdd, hotplug.ActionRemove)
	return monitor, nil
}

// watch coalesces events from monitor until it fails or ctx ends.
func (w *HotplugWatcher) watch(ctx context.Context, monitor *hotplug.Monitor) error {
	raw := make(chan hotplug.Event, 32)
	runErr := make(chan error, 1)
	go func() {
		runErr <- monitor.Run(ctx, raw)
	}()

	w.coalesce(ctx, raw)
	err := <-runErr
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
