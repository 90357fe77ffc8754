package led

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultMQTTTimeout = 5 * time.Second
	mqttConnectRetries = 3
)

// mqttCommand is the JSON light command understood by Home Assistant,
// zigbee2mqtt and ESPHome lights.
type mqttCommand struct {
	State      string     `json:"state"`
	Color      *mqttColor `json:"color,omitempty"`
	Brightness int        `json:"brightness,omitempty"`
	Transition float64    `json:"transition,omitempty"`
	Flash      string     `json:"flash,omitempty"`
	Effect     string     `json:"effect,omitempty"`
}

type mqttColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type publishFunc func(topic string, payload []byte) error

// mqttLight publishes JSON commands to one light's command topic.
type mqttLight struct {
	topic   string
	publish publishFunc
}

func (m *mqttLight) Name() string { return m.topic }

func (m *mqttLight) send(cmd mqttCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("mqtt %s: encode: %w", m.topic, err)
	}
	if err := m.publish(m.topic, payload); err != nil {
		return fmt.Errorf("mqtt %s: %w", m.topic, err)
	}
	return nil
}

func onCommand(c Color) mqttCommand {
	return mqttCommand{
		State:      "ON",
		Color:      &mqttColor{R: c.R, G: c.G, B: c.B},
		Brightness: 255,
	}
}

// SetColor sends the fade as a transition in seconds (fade units of 10 ms).
func (m *mqttLight) SetColor(_ Target, c Color, fadeMs uint8) error {
	if c.IsBlack() {
		return m.send(mqttCommand{State: "OFF", Transition: float64(fadeMs) / 100})
	}
	cmd := onCommand(c)
	cmd.Transition = float64(fadeMs) / 100
	return m.send(cmd)
}

func (m *mqttLight) Blink(_ Target, c Color, _ uint8, repeat uint8) error {
	cmd := onCommand(c)
	cmd.Flash = "short"
	if repeat > 1 {
		cmd.Flash = "long"
	}
	return m.send(cmd)
}

func (m *mqttLight) Wave(_ WaveType, c Color, _ uint8, _ uint8) error {
	cmd := onCommand(c)
	cmd.Effect = "breathe"
	return m.send(cmd)
}

func (m *mqttLight) Close() error { return nil }

// MQTTConfig configures the MQTT light family.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topics   []string
	Username string
	Password string
	Timeout  time.Duration
}

// MQTTScanner exposes one device per configured command topic. The broker
// connection is shared by all devices and outlives rescans.
type MQTTScanner struct {
	cfg    MQTTConfig
	logger *slog.Logger

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTScanner creates a scanner; the broker is dialled on the first scan.
func NewMQTTScanner(cfg MQTTConfig, logger *slog.Logger) *MQTTScanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMQTTTimeout
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "onair"
	}
	return &MQTTScanner{cfg: cfg, logger: logger}
}

// Family implements Scanner.
func (s *MQTTScanner) Family() string { return "mqtt" }

// Scan implements Scanner.
func (s *MQTTScanner) Scan(ctx context.Context) ([]Device, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	publish := func(topic string, payload []byte) error {
		token := client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(s.cfg.Timeout) {
			return errors.New("publish timed out")
		}
		return token.Error()
	}

	devs := make([]Device, 0, len(s.cfg.Topics))
	for _, topic := range s.cfg.Topics {
		devs = append(devs, &mqttLight{topic: topic, publish: publish})
	}
	return devs, nil
}

func (s *MQTTScanner) connect(ctx context.Context) (mqtt.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.client.IsConnectionOpen() {
		return s.client, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetConnectTimeout(s.cfg.Timeout)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 3 * s.cfg.Timeout

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(s.cfg.Timeout) {
			return errors.New("connect timed out")
		}
		if token.Error() != nil {
			if s.logger != nil {
				s.logger.Debug("MQTT connect attempt failed", "broker", s.cfg.Broker, "error", token.Error())
			}
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, mqttConnectRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.cfg.Broker, err)
	}

	if s.logger != nil {
		s.logger.Info("Connected to MQTT broker", "broker", s.cfg.Broker)
	}
	s.client = client
	return client, nil
}

// Close disconnects from the broker.
func (s *MQTTScanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if s.client.IsConnected() {
			s.client.Disconnect(250)
		}
		s.client = nil
	}
	return nil
}
