package led

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/onair/internal/metrics"
)

// ScanResult summarises one rescan.
type ScanResult struct {
	Count    int
	Families map[string]int
}

// BroadcastResult counts per-device outcomes of one broadcast.
type BroadcastResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// DeviceInfo describes a held device for display.
type DeviceInfo struct {
	Family string `json:"family" example:"luxafor" doc:"Hardware family"`
	Name   string `json:"name" example:"hidraw3" doc:"Device name within the family"`
}

type heldDevice struct {
	family string
	dev    Device
}

// Registry owns the set of attached light devices. A rescan replaces the
// whole set; devices are never reused across scans.
type Registry struct {
	mu       sync.RWMutex
	scanners []Scanner
	devices  []heldDevice
	scanned  bool
	shutdown bool
	lastScan time.Time
	logger   *slog.Logger
}

// NewRegistry creates a registry enumerating the given families.
func NewRegistry(logger *slog.Logger, scanners ...Scanner) *Registry {
	return &Registry{
		scanners: scanners,
		logger:   logger,
	}
}

// Rescan closes every held device and enumerates all families again.
// A family that fails contributes no devices; its error is joined into the
// returned error while devices from the other families are still installed.
func (r *Registry) Rescan(ctx context.Context) (ScanResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeAllLocked()

	result := ScanResult{Families: make(map[string]int, len(r.scanners))}
	var next []heldDevice
	var errs []error

	for _, s := range r.scanners {
		family := s.Family()
		devs, err := s.Scan(ctx)
		metrics.RecordRescan(family, err)
		if err != nil {
			for _, d := range devs {
				_ = d.Close()
			}
			r.logger.Warn("Light family scan failed", "family", family, "error", err)
			errs = append(errs, fmt.Errorf("scan %s: %w", family, err))
			continue
		}
		for _, d := range devs {
			next = append(next, heldDevice{family: family, dev: d})
		}
		result.Families[family] = len(devs)
		r.logger.Debug("Light family scanned", "family", family, "devices", len(devs))
	}

	r.devices = next
	r.scanned = true
	r.shutdown = false
	r.lastScan = time.Now()
	result.Count = len(next)
	metrics.SetConnectedDevices(result.Count)

	return result, errors.Join(errs...)
}

// closeAllLocked disposes every held device and empties the set.
func (r *Registry) closeAllLocked() {
	for _, h := range r.devices {
		if err := h.dev.Close(); err != nil {
			r.logger.Debug("Failed to close light", "family", h.family, "device", h.dev.Name(), "error", err)
		}
	}
	r.devices = nil
}

// ConnectedCount returns the number of held devices, 0 before any scan.
func (r *Registry) ConnectedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Scanned reports whether a rescan has completed.
func (r *Registry) Scanned() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanned
}

// LastScan returns when the last rescan completed.
func (r *Registry) LastScan() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastScan
}

// Devices returns a snapshot of the held devices.
func (r *Registry) Devices() []DeviceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceInfo, 0, len(r.devices))
	for _, h := range r.devices {
		out = append(out, DeviceInfo{Family: h.family, Name: h.dev.Name()})
	}
	return out
}

// Description renders the device count for status display.
func (r *Registry) Description() string {
	return describe(r.ConnectedCount())
}

func describe(n int) string {
	switch n {
	case 0:
		return "No lights connected."
	case 1:
		return "1 light connected."
	default:
		return fmt.Sprintf("%d lights connected.", n)
	}
}

// ForEach applies fn to every held device. Failures are logged and counted;
// they never stop the broadcast.
func (r *Registry) ForEach(op string, fn func(Device) error) BroadcastResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res BroadcastResult
	for _, h := range r.devices {
		err := fn(h.dev)
		metrics.RecordDeviceOp(op, err)
		if err != nil {
			res.Failed++
			r.logger.Warn("Light operation failed",
				"op", op,
				"family", h.family,
				"device", h.dev.Name(),
				"error", err)
			continue
		}
		res.Succeeded++
	}
	return res
}

// Shutdown turns every device off, closes it and clears the set. Scanners
// holding connections are closed too. Calling it again is a no-op.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shutdown {
		return
	}
	r.shutdown = true

	for _, h := range r.devices {
		err := h.dev.SetColor(TargetAll, Black, 0)
		metrics.RecordDeviceOp("set_color", err)
		if err != nil {
			r.logger.Debug("Failed to turn light off", "family", h.family, "device", h.dev.Name(), "error", err)
		}
	}
	r.closeAllLocked()
	metrics.SetConnectedDevices(0)

	for _, s := range r.scanners {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				r.logger.Debug("Failed to close light family", "family", s.Family(), "error", err)
			}
		}
	}
}
