package led

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const (
	luxaforVendorID  = 0x04D8
	luxaforProductID = 0xF372

	hidrawClassPath = "/sys/class/hidraw"
	devRootPath     = "/dev"
)

// Luxafor report commands.
const (
	luxCmdColor  byte = 0x01
	luxCmdFade   byte = 0x02
	luxCmdStrobe byte = 0x03
	luxCmdWave   byte = 0x04
)

// luxafor drives a Luxafor Flag through its hidraw node. Every command is an
// 8-byte output report preceded by report ID 0.
type luxafor struct {
	name string
	mu   sync.Mutex
	w    io.WriteCloser
}

func (l *luxafor) Name() string { return l.name }

func (l *luxafor) send(report [8]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return fmt.Errorf("luxafor %s: %w", l.name, os.ErrClosed)
	}
	buf := make([]byte, 9)
	copy(buf[1:], report[:])
	if _, err := l.w.Write(buf); err != nil {
		return fmt.Errorf("luxafor %s: write report: %w", l.name, err)
	}
	return nil
}

func (l *luxafor) SetColor(target Target, c Color, fadeMs uint8) error {
	if fadeMs == 0 {
		return l.send([8]byte{luxCmdColor, byte(target), c.R, c.G, c.B})
	}
	return l.send([8]byte{luxCmdFade, byte(target), c.R, c.G, c.B, fadeMs})
}

func (l *luxafor) Blink(target Target, c Color, fadeMs uint8, repeat uint8) error {
	return l.send([8]byte{luxCmdStrobe, byte(target), c.R, c.G, c.B, fadeMs, 0, repeat})
}

func (l *luxafor) Wave(wave WaveType, c Color, durationMs uint8, repeat uint8) error {
	return l.send([8]byte{luxCmdWave, byte(wave), c.R, c.G, c.B, 0, repeat, durationMs})
}

func (l *luxafor) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return nil
	}
	err := l.w.Close()
	l.w = nil
	return err
}

// LuxaforScanner finds Luxafor Flags among the hidraw devices.
type LuxaforScanner struct {
	ClassPath string
	DevRoot   string
	Logger    *slog.Logger

	open func(path string) (io.WriteCloser, error)
}

// Family implements Scanner.
func (s *LuxaforScanner) Family() string { return "luxafor" }

// Scan implements Scanner. Nodes that match but cannot be opened are logged;
// the scan only fails when none of the matching nodes could be opened.
func (s *LuxaforScanner) Scan(_ context.Context) ([]Device, error) {
	classPath := s.ClassPath
	if classPath == "" {
		classPath = hidrawClassPath
	}
	devRoot := s.DevRoot
	if devRoot == "" {
		devRoot = devRootPath
	}
	open := s.open
	if open == nil {
		open = openHidraw
	}

	entries, err := os.ReadDir(classPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classPath, err)
	}

	var devs []Device
	var errs []error
	for _, e := range entries {
		vendor, product, ok := readHIDID(filepath.Join(classPath, e.Name(), "device", "uevent"))
		if !ok || vendor != luxaforVendorID || product != luxaforProductID {
			continue
		}

		path := filepath.Join(devRoot, e.Name())
		w, openErr := open(path)
		if openErr != nil {
			if s.Logger != nil {
				s.Logger.Warn("Cannot open Luxafor light", "path", path, "error", openErr)
			}
			errs = append(errs, openErr)
			continue
		}
		devs = append(devs, &luxafor{name: e.Name(), w: w})
	}

	if len(devs) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return devs, nil
}

func openHidraw(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY, 0)
}

// readHIDID parses the HID_ID=bus:vendor:product line of a uevent file.
func readHIDID(path string) (vendor, product uint32, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		value, found := strings.CutPrefix(sc.Text(), "HID_ID=")
		if !found {
			continue
		}
		parts := strings.Split(value, ":")
		if len(parts) != 3 {
			return 0, 0, false
		}
		v, vErr := strconv.ParseUint(parts[1], 16, 32)
		p, pErr := strconv.ParseUint(parts[2], 16, 32)
		if vErr != nil || pErr != nil {
			return 0, 0, false
		}
		return uint32(v), uint32(p), true
	}
	return 0, 0, false
}
