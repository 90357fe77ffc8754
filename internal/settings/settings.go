// Package settings holds the user's indicator preferences: one color per
// status and the in-use effect. Blink and Wave are mutually exclusive; the
// last one switched on wins.
package settings

import (
	"github.com/smazurov/onair/internal/led"
)

// Colors are the per-status colors.
type Colors struct {
	InUse    led.Color `toml:"in_use" json:"in_use"`
	NotInUse led.Color `toml:"not_in_use" json:"not_in_use"`
	Locked   led.Color `toml:"locked" json:"locked"`
}

// Effects are the in-use effect toggles.
type Effects struct {
	Blink bool `toml:"blink" json:"blink"`
	Wave  bool `toml:"wave" json:"wave"`
}

// Settings is the persisted preference set.
type Settings struct {
	Colors  Colors  `toml:"colors" json:"colors"`
	Effects Effects `toml:"effects" json:"effects"`
}

// Default returns red in use, green idle, yellow locked, no effect.
func Default() Settings {
	return Settings{
		Colors: Colors{
			InUse:    led.Red,
			NotInUse: led.DefaultNotInUse,
			Locked:   led.Yellow,
		},
	}
}

// SetBlink toggles blinking. Turning it on turns Wave off.
func (s *Settings) SetBlink(on bool) {
	s.Effects.Blink = on
	if on {
		s.Effects.Wave = false
	}
}

// SetWave toggles the wave. Turning it on turns Blink off.
func (s *Settings) SetWave(on bool) {
	s.Effects.Wave = on
	if on {
		s.Effects.Blink = false
	}
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	InUse    *led.Color `json:"in_use,omitempty"`
	NotInUse *led.Color `json:"not_in_use,omitempty"`
	Locked   *led.Color `json:"locked,omitempty"`
	Blink    *bool      `json:"blink,omitempty"`
	Wave     *bool      `json:"wave,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.InUse == nil && p.NotInUse == nil && p.Locked == nil && p.Blink == nil && p.Wave == nil
}

// Apply applies p. Blink is applied before Wave, so a patch switching both on
// ends with Wave.
func (s *Settings) Apply(p Patch) {
	if p.InUse != nil {
		s.Colors.InUse = *p.InUse
	}
	if p.NotInUse != nil {
		s.Colors.NotInUse = *p.NotInUse
	}
	if p.Locked != nil {
		s.Colors.Locked = *p.Locked
	}
	if p.Blink != nil {
		s.SetBlink(*p.Blink)
	}
	if p.Wave != nil {
		s.SetWave(*p.Wave)
	}
}

// EffectConfig converts the settings for the light controller. A file with
// both toggles set renders Wave.
func (s Settings) EffectConfig() led.EffectConfig {
	effect := led.EffectSolid
	switch {
	case s.Effects.Wave:
		effect = led.EffectWave
	case s.Effects.Blink:
		effect = led.EffectBlink
	}
	return led.EffectConfig{
		InUse:    s.Colors.InUse,
		NotInUse: s.Colors.NotInUse,
		Locked:   s.Colors.Locked,
		Effect:   effect,
	}
}
