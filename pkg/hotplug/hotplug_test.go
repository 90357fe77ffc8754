//go:build linux

package hotplug

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sys/unix"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	m, err := NewMonitor()
	if err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMonitorCloseTwice(t *testing.T) {
	m := newTestMonitor(t)

	if err := m.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestMonitorAccepts(t *testing.T) {
	m := newTestMonitor(t)

	hidAdd := &Event{Action: ActionAdd, Subsystem: SubsystemHIDRaw}
	if !m.accepts(hidAdd) {
		t.Error("unfiltered monitor rejected an event")
	}

	m.FilterSubsystems(SubsystemHIDRaw, SubsystemLEDs)
	m.FilterActions(ActionAdd, ActionRemove)

	tests := []struct {
		event *Event
		want  bool
	}{
		{hidAdd, true},
		{&Event{Action: ActionRemove, Subsystem: SubsystemLEDs}, true},
		{&Event{Action: ActionChange, Subsystem: SubsystemHIDRaw}, false},
		{&Event{Action: ActionAdd, Subsystem: "sound"}, false},
	}
	for _, tt := range tests {
		if got := m.accepts(tt.event); got != tt.want {
			t.Errorf("accepts(%s %s) = %v, want %v", tt.event.Action, tt.event.Subsystem, got, tt.want)
		}
	}
}

func TestMonitorRunCancellation(t *testing.T) {
	m := newTestMonitor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Event, 1)
	if err := m.Run(ctx, out); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, ok := <-out; ok {
		t.Error("output channel not closed")
	}
}

// Run with -race.
func TestMonitorConcurrentFilters(t *testing.T) {
	m := newTestMonitor(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.FilterSubsystems(SubsystemHIDRaw, SubsystemUSB)
				m.accepts(&Event{Subsystem: SubsystemUSB})
			}
		}()
	}
	wg.Wait()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.subsystems) != 2 {
		t.Errorf("expected 2 filters, got %d", len(m.subsystems))
	}
}

func TestOverrun(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{unix.ENOBUFS, true},
		{fmt.Errorf("recvfrom: %w", unix.ENOBUFS), true},
		{unix.EAGAIN, false},
		{unix.EBADF, false},
	}
	for _, tt := range tests {
		if got := overrun(tt.err); got != tt.want {
			t.Errorf("overrun(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
