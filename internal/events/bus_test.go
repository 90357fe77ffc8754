package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan HotplugEvent, 1)

	unsub := bus.Subscribe(func(e HotplugEvent) {
		received <- e
	})
	defer unsub()

	event := HotplugEvent{
		Action:    "add",
		Subsystem: "hidraw",
		DevName:   "hidraw3",
		Batched:   2,
	}
	bus.Publish(event)

	got := <-received
	if got.DevName != event.DevName || got.Batched != 2 {
		t.Errorf("got %+v, want %+v", got, event)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan SessionEvent, 1)
	received2 := make(chan SessionEvent, 1)

	unsub1 := bus.Subscribe(func(e SessionEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e SessionEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(SessionEvent{Reason: SessionLock})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan PowerEvent, 1)

	unsub := bus.Subscribe(func(e PowerEvent) {
		received <- e
	})

	bus.Publish(PowerEvent{Code: PowerSuspend})
	<-received

	unsub()

	bus.Publish(PowerEvent{Code: PowerResume})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("expected no-op unsubscribe for unknown handler type")
	}
	unsub()
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[StatusChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(StatusChangedEvent{Status: "locked"})

	select {
	case got := <-ch:
		e, ok := got.(StatusChangedEvent)
		if !ok || e.Status != "locked" {
			t.Errorf("got %#v, want locked StatusChangedEvent", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSessionReasonLocked(t *testing.T) {
	tests := []struct {
		reason SessionReason
		locked bool
	}{
		{SessionUnlock, false},
		{ConsoleConnect, false},
		{SessionLock, true},
		{ConsoleDisconnect, true},
		{RemoteConnect, true},
		{SessionLogoff, true},
		{SessionReason("anything-else"), true},
	}

	for _, tt := range tests {
		if got := tt.reason.Locked(); got != tt.locked {
			t.Errorf("%s.Locked() = %v, want %v", tt.reason, got, tt.locked)
		}
	}
}

func TestPowerCodeString(t *testing.T) {
	if PowerSuspend.String() != "suspend" || PowerResume.String() != "resume" {
		t.Errorf("unexpected power code names: %s, %s", PowerSuspend, PowerResume)
	}
	if PowerCode(1).String() != "unknown" {
		t.Errorf("PowerCode(1) = %s, want unknown", PowerCode(1))
	}
}
