package led

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/amimof/huego"
)

type hueBridge interface {
	GetLightsContext(ctx context.Context) ([]huego.Light, error)
	SetLightState(id int, state huego.State) (*huego.Response, error)
}

// hue drives one Philips Hue light through the bridge REST API.
type hue struct {
	id     int
	name   string
	bridge hueBridge
}

func (h *hue) Name() string { return h.name }

func (h *hue) set(state huego.State) error {
	if _, err := h.bridge.SetLightState(h.id, state); err != nil {
		return fmt.Errorf("hue %s: %w", h.name, err)
	}
	return nil
}

// SetColor converts the fade to bridge transition units of 100 ms.
func (h *hue) SetColor(_ Target, c Color, fadeMs uint8) error {
	if c.IsBlack() {
		return h.set(huego.State{On: false, TransitionTime: uint16(fadeMs / 10)})
	}
	xy, bri := rgbToXY(c)
	return h.set(huego.State{
		On:             true,
		Bri:            bri,
		Xy:             xy,
		TransitionTime: uint16(fadeMs / 10),
	})
}

// Blink uses the bridge alert: one breathe cycle, or 15 s of them when more
// than one repeat is requested.
func (h *hue) Blink(_ Target, c Color, _ uint8, repeat uint8) error {
	alert := "select"
	if repeat > 1 {
		alert = "lselect"
	}
	xy, bri := rgbToXY(c)
	return h.set(huego.State{On: true, Bri: bri, Xy: xy, Alert: alert})
}

func (h *hue) Wave(_ WaveType, c Color, _ uint8, _ uint8) error {
	xy, bri := rgbToXY(c)
	return h.set(huego.State{On: true, Bri: bri, Xy: xy, Alert: "lselect"})
}

func (h *hue) Close() error { return nil }

// rgbToXY converts sRGB to CIE xy and a bridge brightness of 1..254.
func rgbToXY(c Color) ([]float32, uint8) {
	r := gammaExpand(float64(c.R) / 255)
	g := gammaExpand(float64(c.G) / 255)
	b := gammaExpand(float64(c.B) / 255)

	x := r*0.664511 + g*0.154324 + b*0.162028
	y := r*0.283881 + g*0.668433 + b*0.047685
	z := r*0.000088 + g*0.072310 + b*0.986039

	sum := x + y + z
	if sum == 0 {
		return []float32{0.3127, 0.3290}, 1
	}

	peak := max(c.R, c.G, c.B)
	bri := uint8(math.Round(float64(peak) / 255 * 254))
	if bri == 0 {
		bri = 1
	}
	return []float32{float32(x / sum), float32(y / sum)}, bri
}

func gammaExpand(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

// HueScanner enumerates lights on one Hue bridge, optionally filtered by
// name or id.
type HueScanner struct {
	bridge hueBridge
	lights []string
	logger *slog.Logger
}

// NewHueScanner connects to the bridge at host with an existing username.
func NewHueScanner(host, username string, lights []string, logger *slog.Logger) *HueScanner {
	return &HueScanner{
		bridge: huego.New(host, username),
		lights: lights,
		logger: logger,
	}
}

// Family implements Scanner.
func (s *HueScanner) Family() string { return "hue" }

// Scan implements Scanner.
func (s *HueScanner) Scan(ctx context.Context) ([]Device, error) {
	lights, err := s.bridge.GetLightsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hue lights: %w", err)
	}

	var devs []Device
	for _, l := range lights {
		if !s.wanted(l) {
			continue
		}
		devs = append(devs, &hue{id: l.ID, name: l.Name, bridge: s.bridge})
	}
	if s.logger != nil {
		s.logger.Debug("Hue lights found", "total", len(lights), "selected", len(devs))
	}
	return devs, nil
}

func (s *HueScanner) wanted(l huego.Light) bool {
	if len(s.lights) == 0 {
		return true
	}
	id := strconv.Itoa(l.ID)
	for _, want := range s.lights {
		if want == id || strings.EqualFold(want, l.Name) {
			return true
		}
	}
	return false
}
