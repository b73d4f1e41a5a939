package core

import (
	"testing"
	"time"

	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/report"
)

// Nobody home: the ring goes straight to a call, without ringing the bell.
func TestRingNobodyHomeStartsCall(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "null")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if got := h.pub.count(TopicDoorBell, DoorBellActive); got != 0 {
		t.Fatalf("doorbell activated despite empty house: %d publishes", got)
	}
	if len(h.engine.placed) != 1 {
		t.Fatalf("expected exactly one placed call, got %d", len(h.engine.placed))
	}
	if h.ring.State() != RingCompleted {
		t.Fatalf("workflow not completed: %v", h.ring.State())
	}
}

// A ring before the first presence observation rings the bell: only the
// explicit "null" value means nobody home.
func TestRingBeforePresenceObservedRingsBell(t *testing.T) {
	h := newHarness(t)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if len(h.engine.placed) != 0 {
		t.Fatalf("call placed without a presence observation: %v", h.engine.placed)
	}
	if got := h.pub.count(TopicDoorBell, DoorBellActive); got != 1 {
		t.Fatalf("expected one doorbell=active publish, got %d", got)
	}
	if h.ring.State() != RingAwaitingDoorOrTimeout {
		t.Fatalf("expected awaiting state, got %v", h.ring.State())
	}
}

// Somebody home and the door opens in time: bell rings, then resets; no call.
func TestRingDoorOpenedInTime(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person1")
	mustSet(t, h.store, TopicDoor, "closed")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if got := h.pub.count(TopicDoorBell, DoorBellActive); got != 1 {
		t.Fatalf("expected one doorbell=active publish, got %d", got)
	}
	if h.display.lastScreen() != display.ScreenRing {
		t.Fatalf("expected ring screen, got %q", h.display.lastScreen())
	}

	// Door opens before the ring timer elapses.
	mustSet(t, h.store, TopicDoor, "open")
	pump(h.d)

	if got := h.pub.count(TopicDoorBell, DoorBellInactive); got != 1 {
		t.Fatalf("expected one doorbell=inactive publish, got %d", got)
	}
	if len(h.engine.placed) != 0 {
		t.Fatalf("call placed despite answered door: %v", h.engine.placed)
	}
	if h.display.lastScreen() != display.ScreenIntro {
		t.Fatalf("expected intro screen, got %q", h.display.lastScreen())
	}
	if h.timers.Pending(TimerRingScreen) {
		t.Fatal("ring timer still pending after answer")
	}
}

// Somebody home but nobody opens: the timer elapses and a call is placed.
func TestRingTimeoutStartsCall(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person2")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	pumpUntil(t, h.d, func() bool { return h.ring.State() == RingCompleted })

	if got := h.pub.count(TopicDoorBell, DoorBellInactive); got != 1 {
		t.Fatalf("expected one doorbell=inactive publish, got %d", got)
	}
	if len(h.engine.placed) != 1 {
		t.Fatalf("expected exactly one placed call, got %d", len(h.engine.placed))
	}
}

// A second press while a cycle is in flight restarts the cycle cleanly: the
// lingering timer is replaced and only one callback ever fires.
func TestRingRestartReplacesCycle(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person1")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)
	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if got := h.pub.count(TopicDoorBell, DoorBellActive); got != 2 {
		t.Fatalf("expected two doorbell=active publishes, got %d", got)
	}

	pumpUntil(t, h.d, func() bool { return h.ring.State() == RingCompleted })

	if got := h.pub.count(TopicDoorBell, DoorBellInactive); got != 1 {
		t.Fatalf("stale cycle timer also fired: %d inactive publishes", got)
	}
	if len(h.engine.placed) != 1 {
		t.Fatalf("expected one placed call, got %d", len(h.engine.placed))
	}
}

// An unknown presence value never reaches the workflow: the ring press reads
// the last known good state.
func TestRingUsesLastKnownPresence(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "null")
	h.d.Publish(Event{Kind: EventBrokerMessage, Topic: TopicPresence, Payload: "everyone"})
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if len(h.engine.placed) != 1 {
		t.Fatal("expected call start from retained null presence")
	}
}

// A ring press reports a visitor event with the current state snapshot.
func TestRingReportsVisitor(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person1")
	mustSet(t, h.store, TopicDoor, "closed")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	if len(h.reporter.visitors) != 1 {
		t.Fatalf("expected one visitor report, got %d", len(h.reporter.visitors))
	}
	v := h.reporter.visitors[0]
	if v.Type != report.VisitorInitRing {
		t.Fatalf("expected INIT_RING report, got %q", v.Type)
	}
	if v.Snapshot.Presence != "person1" || v.Snapshot.Door != "closed" {
		t.Fatalf("snapshot not captured: %+v", v.Snapshot)
	}
}

// The first door observation after startup is the broker echo, not a visitor:
// no door screen.
func TestDoorScreenSuppressedOnStartupEcho(t *testing.T) {
	h := newHarness(t)

	mustSet(t, h.store, TopicDoor, "open")
	pump(h.d)

	for _, s := range h.display.screens {
		if s == display.ScreenDoor {
			t.Fatal("door screen shown for startup echo")
		}
	}
}

// An unsolicited door open outside any ring cycle shows the door screen and
// reverts to intro after the door-screen timeout.
func TestDoorScreenOnUnsolicitedOpen(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicDoor, "closed")
	pump(h.d)

	mustSet(t, h.store, TopicDoor, "open")
	pump(h.d)

	if h.display.lastScreen() != display.ScreenDoor {
		t.Fatalf("expected door screen, got %q", h.display.lastScreen())
	}

	pumpUntil(t, h.d, func() bool { return h.display.lastScreen() == display.ScreenIntro })
}

// No door screen while a call is active.
func TestDoorScreenSuppressedDuringCall(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicDoor, "closed")
	pump(h.d)

	if _, err := h.calls.StartCall(); err != nil {
		t.Fatalf("start call: %v", err)
	}

	mustSet(t, h.store, TopicDoor, "open")
	pump(h.d)

	for _, s := range h.display.screens {
		if s == display.ScreenDoor {
			t.Fatal("door screen shown during active call")
		}
	}
}

// Door-open and ring-timeout race: the event enqueued first wins.
func TestRingDoorBeatsQueuedTimeout(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person1")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	// Simulate both race arms already enqueued, door first.
	mustSet(t, h.store, TopicDoor, "open")
	h.d.Publish(Event{Kind: EventTimerElapsed, TimerKey: TimerRingScreen})
	pump(h.d)

	if len(h.engine.placed) != 0 {
		t.Fatal("stale timeout started a call after the door was answered")
	}
	if got := h.pub.count(TopicDoorBell, DoorBellInactive); got != 1 {
		t.Fatalf("expected one doorbell=inactive publish, got %d", got)
	}
}

func TestRingTimeoutQuickerThanDoor(t *testing.T) {
	h := newHarness(t)
	mustSet(t, h.store, TopicPresence, "person1")
	pump(h.d)

	h.d.Publish(Event{Kind: EventRingPressed})
	pump(h.d)

	// Timeout is enqueued ahead of the door event.
	h.d.Publish(Event{Kind: EventTimerElapsed, TimerKey: TimerRingScreen})
	h.timers.Cancel(TimerRingScreen)
	mustSet(t, h.store, TopicDoor, "open")
	pump(h.d)

	if len(h.engine.placed) != 1 {
		t.Fatalf("expected the timeout to start a call, got %d", len(h.engine.placed))
	}

	// Give the replaced real timer a moment to prove it stays silent.
	time.Sleep(60 * time.Millisecond)
	pump(h.d)
	if got := h.pub.count(TopicDoorBell, DoorBellInactive); got != 1 {
		t.Fatalf("doorbell reset more than once: %d", got)
	}
}
