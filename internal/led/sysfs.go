package led

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives a kernel LED class device. Multicolor LEDs get the full RGB
// value through multi_intensity; single-color LEDs are on for any non-black
// color.
type sysfs struct {
	name     string
	path     string
	channels []string // multi_index order, empty for single-color LEDs
	max      int
}

func (s *sysfs) Name() string { return s.name }

func (s *sysfs) write(file, value string) error {
	if err := os.WriteFile(filepath.Join(s.path, file), []byte(value), 0644); err != nil {
		return fmt.Errorf("led %s: write %s: %w", s.name, file, err)
	}
	return nil
}

func (s *sysfs) setTrigger(trigger string) error {
	return s.write("trigger", trigger)
}

func (s *sysfs) setColor(c Color) error {
	if len(s.channels) > 0 {
		values := make([]string, len(s.channels))
		for i, ch := range s.channels {
			values[i] = strconv.Itoa(int(channelValue(ch, c)))
		}
		if err := s.write("multi_intensity", strings.Join(values, " ")); err != nil {
			return err
		}
	}

	brightness := s.max
	if c.IsBlack() {
		brightness = 0
	}
	return s.write("brightness", strconv.Itoa(brightness))
}

func channelValue(channel string, c Color) uint8 {
	switch channel {
	case "red":
		return c.R
	case "green":
		return c.G
	case "blue":
		return c.B
	default:
		return 0
	}
}

// SetColor ignores the fade; the LED class has no transition support.
func (s *sysfs) SetColor(_ Target, c Color, _ uint8) error {
	if err := s.setTrigger("none"); err != nil {
		return err
	}
	return s.setColor(c)
}

// Blink fires the oneshot trigger repeat times with on and off phases of
// fadeMs*10 milliseconds.
func (s *sysfs) Blink(_ Target, c Color, fadeMs uint8, repeat uint8) error {
	if err := s.setColor(c); err != nil {
		return err
	}
	if err := s.setTrigger("oneshot"); err != nil {
		return err
	}
	delay := strconv.Itoa(int(fadeMs) * 10)
	if err := s.write("delay_on", delay); err != nil {
		return err
	}
	if err := s.write("delay_off", delay); err != nil {
		return err
	}
	for range max(repeat, 1) {
		if err := s.write("shot", "1"); err != nil {
			return err
		}
	}
	return nil
}

// Wave maps to the heartbeat trigger, the closest kernel animation.
func (s *sysfs) Wave(_ WaveType, c Color, _ uint8, _ uint8) error {
	if err := s.setColor(c); err != nil {
		return err
	}
	return s.setTrigger("heartbeat")
}

func (s *sysfs) Close() error { return nil }

// SysfsScanner opens the named LED class devices. Without names it falls back
// to the status LEDs of the detected board.
type SysfsScanner struct {
	ClassPath string
	Names     []string
	Logger    *slog.Logger

	boardModel func() string
}

// Family implements Scanner.
func (s *SysfsScanner) Family() string { return "sysfs" }

// Scan implements Scanner.
func (s *SysfsScanner) Scan(_ context.Context) ([]Device, error) {
	classPath := s.ClassPath
	if classPath == "" {
		classPath = sysfsLEDPath
	}

	names := s.Names
	if len(names) == 0 {
		model := s.detect()
		names = boardLEDs(model)
		if s.Logger != nil {
			s.Logger.Debug("Using board LEDs", "board_model", model, "leds", names)
		}
	}

	var devs []Device
	for _, name := range names {
		ledPath := filepath.Join(classPath, name)
		if _, err := os.Stat(ledPath); errors.Is(err, os.ErrNotExist) {
			if s.Logger != nil {
				s.Logger.Debug("LED not present", "name", name, "path", ledPath)
			}
			continue
		}

		dev, err := openSysfs(name, ledPath)
		if err != nil {
			return nil, err
		}
		devs = append(devs, dev)
	}
	return devs, nil
}

func (s *SysfsScanner) detect() string {
	if s.boardModel != nil {
		return s.boardModel()
	}
	return detectBoard()
}

func openSysfs(name, ledPath string) (*sysfs, error) {
	dev := &sysfs{name: name, path: ledPath, max: 1}

	if data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness")); err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && v > 0 {
			dev.max = v
		}
	}

	data, err := os.ReadFile(filepath.Join(ledPath, "multi_index"))
	switch {
	case err == nil:
		dev.channels = strings.Fields(string(data))
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("led %s: read multi_index: %w", name, err)
	}
	return dev, nil
}
