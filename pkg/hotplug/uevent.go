package hotplug

import (
	"bytes"
	"strings"
)

// Actions reported by the kernel.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
	ActionBind   = "bind"
	ActionUnbind = "unbind"

	// ActionOverrun is reported by Monitor.Run when the kernel dropped
	// events because the socket buffer was full.
	ActionOverrun = "overrun"
)

// Subsystems a light can appear on.
const (
	SubsystemHIDRaw = "hidraw"
	SubsystemUSB    = "usb"
	SubsystemLEDs   = "leds"
)

// Event is one kernel uevent.
type Event struct {
	Action    string
	KObj      string
	Subsystem string
	DevType   string
	DevName   string
	DevPath   string
	Env       map[string]string
}

var libudevMagic = []byte("libudev\x00")

// ParseUEvent parses "ACTION@KOBJ\0KEY=VALUE\0...". Messages re-broadcast by
// udevd carry a binary header and are ignored; the kernel's own copy of the
// same event arrives as well.
func ParseUEvent(data []byte) *Event {
	if len(data) == 0 || bytes.HasPrefix(data, libudevMagic) {
		return nil
	}

	parts := bytes.Split(data, []byte{0})
	action, kobj, ok := strings.Cut(string(parts[0]), "@")
	if !ok || action == "" {
		return nil
	}

	event := &Event{
		Action: action,
		KObj:   kobj,
		Env:    make(map[string]string, len(parts)-1),
	}

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		event.Env[key] = value

		switch key {
		case "SUBSYSTEM":
			event.Subsystem = value
		case "DEVTYPE":
			event.DevType = value
		case "DEVNAME":
			event.DevName = value
		case "DEVPATH":
			event.DevPath = value
		}
	}

	return event
}
