package led

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

var errUnplugged = errors.New("device unplugged")

// Mock device for testing
type mockDevice struct {
	name string

	mu      sync.Mutex
	calls   []deviceCall
	closes  int
	failing bool
}

type deviceCall struct {
	op     string
	target Target
	color  Color
	fade   uint8
	repeat uint8
	wave   WaveType
}

func newMockDevice(name string) *mockDevice {
	return &mockDevice{name: name}
}

func (m *mockDevice) Name() string { return m.name }

func (m *mockDevice) record(c deviceCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	if m.failing {
		return errUnplugged
	}
	return nil
}

func (m *mockDevice) SetColor(target Target, color Color, fadeMs uint8) error {
	return m.record(deviceCall{op: "set_color", target: target, color: color, fade: fadeMs})
}

func (m *mockDevice) Blink(target Target, color Color, fadeMs uint8, repeat uint8) error {
	return m.record(deviceCall{op: "blink", target: target, color: color, fade: fadeMs, repeat: repeat})
}

func (m *mockDevice) Wave(wave WaveType, color Color, durationMs uint8, repeat uint8) error {
	return m.record(deviceCall{op: "wave", wave: wave, color: color, fade: durationMs, repeat: repeat})
}

func (m *mockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockDevice) setFailing(f bool) {
	m.mu.Lock()
	m.failing = f
	m.mu.Unlock()
}

func (m *mockDevice) snapshot() []deviceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]deviceCall(nil), m.calls...)
}

func (m *mockDevice) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

func (m *mockDevice) count(op string) int {
	n := 0
	for _, c := range m.snapshot() {
		if c.op == op {
			n++
		}
	}
	return n
}

func (m *mockDevice) last() (deviceCall, bool) {
	calls := m.snapshot()
	if len(calls) == 0 {
		return deviceCall{}, false
	}
	return calls[len(calls)-1], true
}

// Mock scanner handing out one batch of devices per scan
type mockScanner struct {
	family string

	mu      sync.Mutex
	batches [][]Device
	scans   int
	err     error
	closed  int
}

func (s *mockScanner) Family() string { return s.family }

func (s *mockScanner) Scan(_ context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	if len(s.batches) > 1 {
		s.batches = s.batches[1:]
	}
	return batch, nil
}

func (s *mockScanner) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}

type closingScanner struct {
	mockScanner
}

var _ io.Closer = (*closingScanner)(nil)

func (s *closingScanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func devices(ds ...*mockDevice) []Device {
	out := make([]Device, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}
