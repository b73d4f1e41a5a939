package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/callengine"
	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/report"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// pump synchronously dispatches everything queued so far, including events
// enqueued by the handlers it runs. Tests stay deterministic without a
// running loop goroutine.
func pump(d *Dispatcher) {
	for {
		select {
		case ev := <-d.queue:
			d.dispatch(ev)
		default:
			return
		}
	}
}

// pumpUntil keeps dispatching until cond holds or the deadline passes,
// sleeping between polls so pending timers get a chance to fire.
func pumpUntil(t *testing.T, d *Dispatcher, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pump(d)
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

type published struct {
	topic Topic
	value string
}

type fakePublisher struct {
	msgs []published
}

func (p *fakePublisher) Publish(topic Topic, value string) {
	p.msgs = append(p.msgs, published{topic: topic, value: value})
}

func (p *fakePublisher) count(topic Topic, value string) int {
	n := 0
	for _, m := range p.msgs {
		if m.topic == topic && m.value == value {
			n++
		}
	}
	return n
}

type fakeDisplay struct {
	screens []display.Screen
	buttons []bool
	feeds   [][]callengine.Feed
}

func (f *fakeDisplay) ShowScreen(s display.Screen)          { f.screens = append(f.screens, s) }
func (f *fakeDisplay) SetCallFeeds(feeds []callengine.Feed) { f.feeds = append(f.feeds, feeds) }
func (f *fakeDisplay) SetCallButton(active bool)            { f.buttons = append(f.buttons, active) }

func (f *fakeDisplay) lastScreen() display.Screen {
	if len(f.screens) == 0 {
		return ""
	}
	return f.screens[len(f.screens)-1]
}

type fakeReporter struct {
	calls        []report.Call
	participants []report.Participant
	visitors     []report.VisitorEvent
}

func (r *fakeReporter) ReportCall(_ context.Context, c report.Call) error {
	r.calls = append(r.calls, c)
	return nil
}

func (r *fakeReporter) ReportParticipant(_ context.Context, p report.Participant) error {
	r.participants = append(r.participants, p)
	return nil
}

func (r *fakeReporter) ReportVisitorEvent(_ context.Context, ev report.VisitorEvent) error {
	r.visitors = append(r.visitors, ev)
	return nil
}

type fakeEngine struct {
	placed    []string
	hangups   []string
	placeErr  error
	hangupErr error
}

func (e *fakeEngine) PlaceCall(_ context.Context, callID, _ string) error {
	if e.placeErr != nil {
		return e.placeErr
	}
	e.placed = append(e.placed, callID)
	return nil
}

func (e *fakeEngine) Hangup(_ context.Context, callID, _ string) error {
	if e.hangupErr != nil {
		return e.hangupErr
	}
	e.hangups = append(e.hangups, callID)
	return nil
}

// harness bundles a fully wired core with fakes for collaborator contracts.
type harness struct {
	d        *Dispatcher
	store    *StateStore
	timers   *TimerManager
	pub      *fakePublisher
	display  *fakeDisplay
	reporter *fakeReporter
	engine   *fakeEngine
	calls    *CallSessionManager
	ring     *RingWorkflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	d := NewDispatcher(testLogger())
	store := NewStateStore(d, testLogger())
	store.Register()
	timers := NewTimerManager(d)

	pub := &fakePublisher{}
	disp := &fakeDisplay{}
	rep := &fakeReporter{}
	eng := &fakeEngine{}

	calls := NewCallSessionManager(context.Background(), testLogger(), timers, eng, disp, rep, pub, store, CallConfig{
		DeviceID:          "door-1",
		RoomID:            "front-door",
		CallScreenTimeout: 30 * time.Millisecond,
		DoorOpenerTimeout: 20 * time.Millisecond,
		OpenDoorCmd:       "open door",
	})
	calls.Register(d)

	ring := NewRingWorkflow(context.Background(), testLogger(), store, timers, pub, disp, rep, calls, RingConfig{
		DeviceID:          "door-1",
		RingScreenTimeout: 40 * time.Millisecond,
		DoorScreenTimeout: 40 * time.Millisecond,
	})
	ring.Register(d)

	return &harness{
		d:        d,
		store:    store,
		timers:   timers,
		pub:      pub,
		display:  disp,
		reporter: rep,
		engine:   eng,
		calls:    calls,
		ring:     ring,
	}
}
