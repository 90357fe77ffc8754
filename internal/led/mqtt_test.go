package led

import (
	"encoding/json"
	"errors"
	"testing"
)

type published struct {
	topic   string
	payload map[string]any
}

func recordingPublisher(t *testing.T, out *[]published) publishFunc {
	t.Helper()
	return func(topic string, payload []byte) error {
		var m map[string]any
		if err := json.Unmarshal(payload, &m); err != nil {
			t.Fatalf("invalid payload %s: %v", payload, err)
		}
		*out = append(*out, published{topic: topic, payload: m})
		return nil
	}
}

func TestMQTTLight_Commands(t *testing.T) {
	var got []published
	l := &mqttLight{topic: "zigbee2mqtt/desk/set", publish: recordingPublisher(t, &got)}

	if err := l.SetColor(TargetAll, DefaultNotInUse, SolidFadeMs); err != nil {
		t.Fatal(err)
	}
	if err := l.Blink(TargetAll, Red, BlinkFadeMs, BlinkRepeat); err != nil {
		t.Fatal(err)
	}
	if err := l.Wave(WaveShort, Red, WaveDurationMs, WaveRepeat); err != nil {
		t.Fatal(err)
	}
	if err := l.SetColor(TargetAll, Black, 0); err != nil {
		t.Fatal(err)
	}

	if len(got) != 4 {
		t.Fatalf("published %d messages, want 4", len(got))
	}
	for _, p := range got {
		if p.topic != "zigbee2mqtt/desk/set" {
			t.Errorf("topic = %s", p.topic)
		}
	}

	solid := got[0].payload
	color, _ := solid["color"].(map[string]any)
	if solid["state"] != "ON" || color["g"] != float64(190) || solid["transition"] != 0.1 {
		t.Errorf("solid payload = %v", solid)
	}
	if got[1].payload["flash"] != "short" {
		t.Errorf("blink payload = %v", got[1].payload)
	}
	if got[2].payload["effect"] != "breathe" {
		t.Errorf("wave payload = %v", got[2].payload)
	}
	off := got[3].payload
	if off["state"] != "OFF" {
		t.Errorf("off payload = %v", off)
	}
	if _, ok := off["color"]; ok {
		t.Errorf("off payload carries a color: %v", off)
	}
}

func TestMQTTLight_PublishError(t *testing.T) {
	l := &mqttLight{
		topic:   "lights/door",
		publish: func(string, []byte) error { return errors.New("not connected") },
	}

	if err := l.SetColor(TargetAll, Red, 0); err == nil {
		t.Error("SetColor() error = nil, want publish error")
	}
}

func TestNewMQTTScannerDefaults(t *testing.T) {
	s := NewMQTTScanner(MQTTConfig{Broker: "tcp://192.0.2.1:1883"}, nil)

	if s.cfg.ClientID != "onair" {
		t.Errorf("ClientID = %q, want onair", s.cfg.ClientID)
	}
	if s.cfg.Timeout != defaultMQTTTimeout {
		t.Errorf("Timeout = %v", s.cfg.Timeout)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() before connect = %v", err)
	}
}
