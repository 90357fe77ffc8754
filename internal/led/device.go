package led

import (
	"context"
	"fmt"

	"github.com/smazurov/onair/internal/status"
)

// Target selects which LEDs of a device an operation addresses.
type Target uint8

// Targets understood by all families. Families with a single LED treat every
// target as TargetAll.
const (
	TargetAll   Target = 0xFF
	TargetFront Target = 0x41
	TargetBack  Target = 0x42
)

// WaveType selects the hardware wave animation.
type WaveType uint8

const (
	WaveShort WaveType = iota + 1
	WaveLong
	WaveOverlappingShort
	WaveOverlappingLong
	WavePulse
)

// Device is the capability surface every light family implements. The
// controller only talks to lights through this interface.
type Device interface {
	// Name identifies the device within its family.
	Name() string

	// SetColor fades the target to color over fadeMs (hardware units).
	SetColor(target Target, color Color, fadeMs uint8) error

	// Blink starts a hardware-owned blink pulse repeated repeat times.
	Blink(target Target, color Color, fadeMs uint8, repeat uint8) error

	// Wave starts a fire-and-forget wave animation.
	Wave(wave WaveType, color Color, durationMs uint8, repeat uint8) error

	// Close releases the hardware handle. Called exactly once.
	Close() error
}

// Scanner enumerates the devices of one hardware family.
type Scanner interface {
	Family() string
	Scan(ctx context.Context) ([]Device, error)
}

// Effect is the rendering mode for the in-use status.
type Effect int

const (
	EffectSolid Effect = iota
	EffectBlink
	EffectWave
)

func (e Effect) String() string {
	switch e {
	case EffectSolid:
		return "solid"
	case EffectBlink:
		return "blink"
	case EffectWave:
		return "wave"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// EffectConfig carries the per-status colors and the in-use effect.
type EffectConfig struct {
	InUse    Color
	NotInUse Color
	Locked   Color
	Effect   Effect
}

// DefaultEffects returns the out-of-the-box palette.
func DefaultEffects() EffectConfig {
	return EffectConfig{
		InUse:    Red,
		NotInUse: DefaultNotInUse,
		Locked:   Yellow,
		Effect:   EffectSolid,
	}
}

// ColorFor returns the configured color for s.
func (e EffectConfig) ColorFor(s status.Status) Color {
	switch s {
	case status.InUse:
		return e.InUse
	case status.Locked:
		return e.Locked
	default:
		return e.NotInUse
	}
}
