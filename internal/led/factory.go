package led

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// FamiliesConfig selects and configures the light families to enumerate.
type FamiliesConfig struct {
	Luxafor bool

	Sysfs     bool
	SysfsLEDs []string

	HueBridge   string
	HueUsername string
	HueLights   []string

	MQTTBroker   string
	MQTTClientID string
	MQTTTopics   []string
	MQTTUsername string
	MQTTPassword string
	MQTTTimeout  time.Duration

	Virtual int
}

// NewScanners builds one scanner per enabled family.
func NewScanners(cfg FamiliesConfig, logger *slog.Logger) []Scanner {
	var scanners []Scanner

	if cfg.Luxafor {
		scanners = append(scanners, &LuxaforScanner{Logger: logger})
	}

	if cfg.Sysfs {
		scanners = append(scanners, &SysfsScanner{Names: cfg.SysfsLEDs, Logger: logger})
	}

	if cfg.HueBridge != "" {
		scanners = append(scanners, NewHueScanner(cfg.HueBridge, cfg.HueUsername, cfg.HueLights, logger))
	}

	if cfg.MQTTBroker != "" && len(cfg.MQTTTopics) > 0 {
		scanners = append(scanners, NewMQTTScanner(MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topics:   cfg.MQTTTopics,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Timeout:  cfg.MQTTTimeout,
		}, logger))
	}

	if cfg.Virtual > 0 {
		scanners = append(scanners, &VirtualScanner{Count: cfg.Virtual, Logger: logger})
	}

	families := make([]string, 0, len(scanners))
	for _, s := range scanners {
		families = append(families, s.Family())
	}
	if logger != nil {
		logger.Info("Light families configured", "families", families)
	}

	return scanners
}

// boardLEDs returns the status LED names known for a board model.
func boardLEDs(model string) []string {
	switch {
	case strings.Contains(model, "NanoPC-T6"):
		return []string{"usr_led", "sys_led"}
	case strings.Contains(model, "Orange Pi"):
		return []string{"blue_led", "green_led"}
	case strings.Contains(model, "Raspberry Pi"):
		return []string{"ACT"}
	default:
		return nil
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
