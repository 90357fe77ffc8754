// Package cmd holds the command-line options shared by the daemon and its
// subcommands, and the subcommands themselves.
package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/smazurov/onair/internal/config"
	"github.com/smazurov/onair/internal/led"
	"github.com/smazurov/onair/internal/logging"
	"github.com/smazurov/onair/internal/mic"
	"github.com/smazurov/onair/internal/signals"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"onair.toml"`

	// Server settings
	Port         string `help:"Address to listen on" short:"p" default:"127.0.0.1:8091" toml:"server.port" env:"SERVER_PORT"`
	AuthUsername string `help:"Basic auth username (empty disables auth)" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`
	Metrics      bool   `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"server.metrics" env:"METRICS"`

	// Settings file
	SettingsFile string `help:"Colors and effects file (default: user config dir)" default:"" toml:"settings.file" env:"SETTINGS_FILE"`
	BlinkPeriod  string `help:"Blink re-assertion period" default:"3s" toml:"settings.blink_period" env:"BLINK_PERIOD"`

	// Signal sources
	MicPollInterval string `help:"Capture store poll interval" default:"500ms" toml:"mic.poll_interval" env:"MIC_POLL_INTERVAL"`
	HotplugSettle   string `help:"Window grouping hot-plug events" default:"1s" toml:"signals.hotplug_settle" env:"HOTPLUG_SETTLE"`
	SessionWatch    bool   `help:"Follow session lock via logind" default:"true" toml:"signals.session" env:"SIGNALS_SESSION"`
	PowerWatch      bool   `help:"Follow suspend and resume via logind" default:"true" toml:"signals.power" env:"SIGNALS_POWER"`
	HotplugWatch    bool   `help:"Rescan lights on hot-plug" default:"true" toml:"signals.hotplug" env:"SIGNALS_HOTPLUG"`

	// Light families
	LightsLuxafor     bool   `help:"Enumerate Luxafor USB lights" default:"true" toml:"lights.luxafor" env:"LIGHTS_LUXAFOR"`
	LightsSysfs       bool   `help:"Drive /sys/class/leds status LEDs" default:"false" toml:"lights.sysfs" env:"LIGHTS_SYSFS"`
	LightsSysfsLeds   string `help:"Comma-separated sysfs LED names (default: board LEDs)" default:"" toml:"lights.sysfs_leds" env:"LIGHTS_SYSFS_LEDS"`
	LightsHueBridge   string `help:"Philips Hue bridge address" default:"" toml:"lights.hue.bridge" env:"LIGHTS_HUE_BRIDGE"`
	LightsHueUsername string `help:"Philips Hue API username" default:"" toml:"lights.hue.username" env:"LIGHTS_HUE_USERNAME"`
	LightsHueLights   string `help:"Comma-separated Hue light names or IDs (default: all)" default:"" toml:"lights.hue.lights" env:"LIGHTS_HUE_LIGHTS"`
	LightsMqttBroker  string `help:"MQTT broker URL" default:"" toml:"lights.mqtt.broker" env:"LIGHTS_MQTT_BROKER"`
	LightsMqttClient  string `help:"MQTT client ID" default:"onair" toml:"lights.mqtt.client_id" env:"LIGHTS_MQTT_CLIENT"`
	LightsMqttTopics  string `help:"Comma-separated MQTT light command topics" default:"" toml:"lights.mqtt.topics" env:"LIGHTS_MQTT_TOPICS"`
	LightsMqttUser    string `help:"MQTT username" default:"" toml:"lights.mqtt.username" env:"LIGHTS_MQTT_USER"`
	LightsMqttPass    string `help:"MQTT password" default:"" toml:"lights.mqtt.password" env:"LIGHTS_MQTT_PASS"`
	LightsMqttTimeout string `help:"MQTT publish timeout" default:"5s" toml:"lights.mqtt.timeout" env:"LIGHTS_MQTT_TIMEOUT"`
	LightsVirtual     int    `help:"Number of log-only virtual lights" default:"0" toml:"lights.virtual" env:"LIGHTS_VIRTUAL"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLed      string `help:"Lights logging level" default:"" toml:"logging.led" env:"LOGGING_LED"`
	LoggingMic      string `help:"Capture store logging level" default:"" toml:"logging.mic" env:"LOGGING_MIC"`
	LoggingSignals  string `help:"Signal sources logging level" default:"" toml:"logging.signals" env:"LOGGING_SIGNALS"`
	LoggingSettings string `help:"Settings logging level" default:"" toml:"logging.settings" env:"LOGGING_SETTINGS"`
	LoggingAPI      string `help:"API logging level" default:"" toml:"logging.api" env:"LOGGING_API"`
}

// LoggingConfig builds the logging configuration. Modules left empty follow
// the global level; a [logging.modules] table in the config file adds more.
func (o *Options) LoggingConfig() logging.Config {
	cfg := config.LoadLoggingConfig(o.Config)
	cfg.Level = o.LoggingLevel
	cfg.Format = o.LoggingFormat

	for module, level := range map[string]string{
		"led":      o.LoggingLed,
		"mic":      o.LoggingMic,
		"signals":  o.LoggingSignals,
		"settings": o.LoggingSettings,
		"api":      o.LoggingAPI,
	} {
		if level != "" {
			cfg.Modules[module] = level
		}
	}
	return cfg
}

// Families converts the light options for led.NewScanners.
func (o *Options) Families() (led.FamiliesConfig, error) {
	timeout, err := config.ParseDuration(o.LightsMqttTimeout, 5*time.Second)
	if err != nil {
		return led.FamiliesConfig{}, err
	}
	return led.FamiliesConfig{
		Luxafor:      o.LightsLuxafor,
		Sysfs:        o.LightsSysfs,
		SysfsLEDs:    config.SplitList(o.LightsSysfsLeds),
		HueBridge:    o.LightsHueBridge,
		HueUsername:  o.LightsHueUsername,
		HueLights:    config.SplitList(o.LightsHueLights),
		MQTTBroker:   o.LightsMqttBroker,
		MQTTClientID: o.LightsMqttClient,
		MQTTTopics:   config.SplitList(o.LightsMqttTopics),
		MQTTUsername: o.LightsMqttUser,
		MQTTPassword: o.LightsMqttPass,
		MQTTTimeout:  timeout,
		Virtual:      o.LightsVirtual,
	}, nil
}

// Intervals holds the parsed timing options.
type Intervals struct {
	BlinkPeriod   time.Duration
	MicPoll       time.Duration
	HotplugSettle time.Duration
}

// Intervals parses the duration options.
func (o *Options) Intervals() (Intervals, error) {
	var (
		iv  Intervals
		err error
	)
	if iv.BlinkPeriod, err = config.ParseDuration(o.BlinkPeriod, led.DefaultBlinkPeriod); err != nil {
		return iv, err
	}
	if iv.MicPoll, err = config.ParseDuration(o.MicPollInterval, mic.DefaultPollInterval); err != nil {
		return iv, err
	}
	if iv.HotplugSettle, err = config.ParseDuration(o.HotplugSettle, signals.DefaultSettle); err != nil {
		return iv, err
	}
	return iv, nil
}

// SettingsPath returns the settings file, defaulting to onair/settings.toml
// under the user config directory.
func (o *Options) SettingsPath() string {
	if o.SettingsFile != "" {
		return o.SettingsFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.toml"
	}
	return filepath.Join(dir, "onair", "settings.toml")
}
