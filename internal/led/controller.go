package led

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sanity-io/litter"
	"github.com/smazurov/onair/internal/status"
)

// Rendering constants.
const (
	SolidFadeMs        uint8 = 10
	BlinkFadeMs        uint8 = 20
	BlinkRepeat        uint8 = 1
	WaveDurationMs     uint8 = 20
	WaveRepeat         uint8 = 1
	DefaultBlinkPeriod       = 3000 * time.Millisecond
)

// State is the controller's effect state.
type State int

const (
	StateOff State = iota
	StateSolid
	StateBlinking
)

func (s State) String() string {
	switch s {
	case StateSolid:
		return "solid"
	case StateBlinking:
		return "blinking"
	default:
		return "off"
	}
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	Status        status.Status
	Applied       bool
	State         State
	Effects       EffectConfig
	LastBroadcast BroadcastResult
}

// Controller renders a status onto every device in the registry and owns
// the blink re-assertion task. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	registry *Registry
	effects  EffectConfig
	period   time.Duration
	logger   *slog.Logger

	state   State
	status  status.Status
	applied bool
	last    BroadcastResult

	blinkStop chan struct{}
	blinkGen  uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithBlinkPeriod overrides the blink re-assertion period.
func WithBlinkPeriod(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.period = d
		}
	}
}

// NewController creates a controller in the Off state.
func NewController(registry *Registry, effects EffectConfig, logger *slog.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		registry: registry,
		effects:  effects,
		period:   DefaultBlinkPeriod,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplyStatus renders s. Any armed blink task is cancelled first, so applying
// the same status twice leaves the hardware in the same state.
func (c *Controller) ApplyStatus(s status.Status) BroadcastResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopBlinkLocked()
	c.status = s
	c.applied = true

	color := c.effects.ColorFor(s)
	c.state = StateSolid
	var res BroadcastResult

	// Wave is fire-and-forget; it is never re-armed.
	if s == status.InUse && c.effects.Effect == EffectWave {
		res = c.registry.ForEach("wave", func(d Device) error {
			return d.Wave(WaveShort, color, WaveDurationMs, WaveRepeat)
		})
	} else {
		res = c.registry.ForEach("set_color", func(d Device) error {
			return d.SetColor(TargetAll, color, SolidFadeMs)
		})
		if s == status.InUse && c.effects.Effect == EffectBlink {
			c.startBlinkLocked(color)
		}
	}

	c.last = res
	c.logger.Debug("Status applied",
		"status", s.String(),
		"color", color.String(),
		"state", c.state.String(),
		"succeeded", res.Succeeded,
		"failed", res.Failed)
	return res
}

// LightsOff sets every device to black without changing the logical status.
func (c *Controller) LightsOff() BroadcastResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopBlinkLocked()
	res := c.registry.ForEach("set_color", func(d Device) error {
		return d.SetColor(TargetAll, Black, 0)
	})
	c.state = StateOff
	c.last = res
	c.logger.Debug("Lights off", "succeeded", res.Succeeded, "failed", res.Failed)
	return res
}

// SetEffects replaces the palette. It takes effect on the next ApplyStatus.
func (c *Controller) SetEffects(e EffectConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.effects = e
	c.logger.Debug("Effects updated", "effects", litter.Sdump(e))
}

// Effects returns the current palette.
func (c *Controller) Effects() EffectConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effects
}

// Snapshot returns the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Status:        c.status,
		Applied:       c.applied,
		State:         c.state,
		Effects:       c.effects,
		LastBroadcast: c.last,
	}
}

// Shutdown cancels the blink task, turns every device off and releases it.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopBlinkLocked()
	c.registry.Shutdown()
	c.state = StateOff
}

func (c *Controller) startBlinkLocked(color Color) {
	stop := make(chan struct{})
	c.blinkStop = stop
	c.blinkGen++
	c.state = StateBlinking
	go c.runBlink(c.blinkGen, color, stop)
}

func (c *Controller) stopBlinkLocked() {
	if c.blinkStop == nil {
		return
	}
	close(c.blinkStop)
	c.blinkStop = nil
	c.blinkGen++
}

func (c *Controller) runBlink(gen uint64, color Color, stop <-chan struct{}) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.blinkOnce(gen, color) {
				return
			}
		}
	}
}

// blinkOnce sends one pulse unless the task was cancelled since it was armed.
func (c *Controller) blinkOnce(gen uint64, color Color) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.blinkGen != gen || c.blinkStop == nil {
		return false
	}
	c.last = c.registry.ForEach("blink", func(d Device) error {
		return d.Blink(TargetAll, color, BlinkFadeMs, BlinkRepeat)
	})
	return true
}
