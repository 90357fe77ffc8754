package led

import (
	"context"
	"fmt"
	"log/slog"
)

// virtual is a Device that only logs what it would render. It lets the
// daemon run on machines without lights attached.
type virtual struct {
	name   string
	logger *slog.Logger
}

func (v *virtual) Name() string { return v.name }

func (v *virtual) SetColor(target Target, color Color, fadeMs uint8) error {
	v.logger.Debug("Virtual light set color",
		"device", v.name,
		"target", target,
		"color", color.String(),
		"fade", fadeMs)
	return nil
}

func (v *virtual) Blink(target Target, color Color, fadeMs uint8, repeat uint8) error {
	v.logger.Debug("Virtual light blink",
		"device", v.name,
		"target", target,
		"color", color.String(),
		"fade", fadeMs,
		"repeat", repeat)
	return nil
}

func (v *virtual) Wave(wave WaveType, color Color, durationMs uint8, repeat uint8) error {
	v.logger.Debug("Virtual light wave",
		"device", v.name,
		"wave", wave,
		"color", color.String(),
		"duration", durationMs,
		"repeat", repeat)
	return nil
}

func (v *virtual) Close() error { return nil }

// VirtualScanner reports a fixed number of logging-only devices.
type VirtualScanner struct {
	Count  int
	Logger *slog.Logger
}

// Family implements Scanner.
func (s *VirtualScanner) Family() string { return "virtual" }

// Scan implements Scanner.
func (s *VirtualScanner) Scan(_ context.Context) ([]Device, error) {
	devs := make([]Device, 0, s.Count)
	for i := range s.Count {
		devs = append(devs, &virtual{
			name:   fmt.Sprintf("virtual%d", i),
			logger: s.Logger,
		})
	}
	return devs, nil
}
