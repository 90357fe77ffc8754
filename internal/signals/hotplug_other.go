//go:build !linux

package signals

import "context"

// Start logs that hot-plug is unavailable here.
func (w *HotplugWatcher) Start(_ context.Context) error {
	w.logger.Warn("Hot-plug monitoring not supported on this platform")
	return nil
}
