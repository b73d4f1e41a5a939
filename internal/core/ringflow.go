package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/report"
)

// RingState is the state of the transient doorbell-press workflow.
type RingState int

const (
	RingIdle RingState = iota
	RingEvaluating
	RingAwaitingDoorOrTimeout
	RingCompleted
)

// RingConfig carries the workflow's tunables.
type RingConfig struct {
	DeviceID          string
	RingScreenTimeout time.Duration
	DoorScreenTimeout time.Duration
}

// RingWorkflow runs the doorbell-press decision procedure: nobody home means
// an immediate call; otherwise the physical bell rings and the door-open
// observation races the ring timer. Both race arms arrive through the
// dispatcher queue, so whichever is enqueued first wins deterministically.
type RingWorkflow struct {
	ctx      context.Context
	log      *zerolog.Logger
	store    *StateStore
	timers   *TimerManager
	pub      Publisher
	display  display.Display
	reporter report.Reporter
	calls    *CallSessionManager
	cfg      RingConfig

	state RingState

	// doorOpened is scoped strictly to the in-flight workflow instance; it
	// is set only while awaiting the door-vs-timeout race.
	doorOpened bool
}

// NewRingWorkflow builds the workflow in its idle state.
func NewRingWorkflow(
	ctx context.Context,
	logger *zerolog.Logger,
	store *StateStore,
	timers *TimerManager,
	pub Publisher,
	disp display.Display,
	reporter report.Reporter,
	calls *CallSessionManager,
	cfg RingConfig,
) *RingWorkflow {
	return &RingWorkflow{
		ctx:      ctx,
		log:      logger,
		store:    store,
		timers:   timers,
		pub:      pub,
		display:  disp,
		reporter: reporter,
		calls:    calls,
		cfg:      cfg,
	}
}

// Register subscribes the workflow's handlers on the dispatcher.
func (w *RingWorkflow) Register(d *Dispatcher) {
	d.Subscribe(EventRingPressed, func(Event) { w.HandleRingPressed() })
	d.Subscribe(EventStateChanged, w.handleStateChanged)
	d.Subscribe(EventTimerElapsed, w.handleTimerElapsed)
}

// State returns the current workflow state.
func (w *RingWorkflow) State() RingState {
	return w.state
}

// HandleRingPressed starts a fresh ring cycle. An in-flight cycle is forced
// to completion first; its lingering timer is replaced by the new schedule or
// canceled outright.
func (w *RingWorkflow) HandleRingPressed() {
	w.timers.Cancel(TimerRingScreen)
	w.timers.Cancel(TimerDoorScreen)
	w.doorOpened = false
	w.state = RingEvaluating

	w.reportVisitor()

	// Only the explicit "null" presence means nobody home. Before the first
	// presence observation the bell rings like anyone could be in.
	presence, seen := w.store.Get(TopicPresence)
	if seen && presence == PresenceNone {
		w.log.Info().Msg("nobody home: starting call immediately")
		w.state = RingCompleted
		if _, err := w.calls.StartCall(); err != nil {
			w.log.Warn().Err(err).Msg("ring call not started")
		}
		return
	}

	w.log.Info().Str("presence", presence).Msg("somebody home: ringing the bell")
	w.pub.Publish(TopicDoorBell, DoorBellActive)
	w.display.ShowScreen(display.ScreenRing)
	w.timers.Schedule(TimerRingScreen, w.cfg.RingScreenTimeout)
	w.state = RingAwaitingDoorOrTimeout
}

func (w *RingWorkflow) handleStateChanged(ev Event) {
	if ev.Topic != TopicDoor || ev.New != DoorOpen {
		return
	}

	if w.state == RingAwaitingDoorOrTimeout {
		// Door answered before the timer: the workflow consumes the event.
		w.log.Info().Msg("door opened within ring timeout")
		w.doorOpened = true
		w.timers.Cancel(TimerRingScreen)
		w.pub.Publish(TopicDoorBell, DoorBellInactive)
		w.display.ShowScreen(display.ScreenIntro)
		w.state = RingCompleted
		return
	}

	// Unsolicited door open. The first observation after startup is the
	// broker's retained echo, not a visitor.
	if ev.Old == "" {
		return
	}
	if w.calls.IsActive() {
		return
	}
	w.display.ShowScreen(display.ScreenDoor)
	w.timers.Schedule(TimerDoorScreen, w.cfg.DoorScreenTimeout)
}

func (w *RingWorkflow) handleTimerElapsed(ev Event) {
	switch ev.TimerKey {
	case TimerRingScreen:
		if w.state != RingAwaitingDoorOrTimeout {
			// Stale timer event from a canceled cycle.
			return
		}
		w.pub.Publish(TopicDoorBell, DoorBellInactive)
		w.state = RingCompleted
		if w.doorOpened {
			w.display.ShowScreen(display.ScreenIntro)
			return
		}
		w.log.Info().Msg("door not opened within ring timeout: starting call")
		if _, err := w.calls.StartCall(); err != nil {
			w.log.Warn().Err(err).Msg("ring timeout call not started")
		}
	case TimerDoorScreen:
		w.display.ShowScreen(display.ScreenIntro)
	}
}

func (w *RingWorkflow) reportVisitor() {
	ev := report.VisitorEvent{
		DeviceID:    w.cfg.DeviceID,
		Type:        report.VisitorInitRing,
		TriggeredAt: time.Now(),
		Snapshot:    w.store.Snapshot(),
	}
	if err := w.reporter.ReportVisitorEvent(w.ctx, ev); err != nil {
		w.log.Error().Err(err).Msg("visitor report failed")
	}
}
