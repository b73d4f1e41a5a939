package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/callengine"
	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/report"
)

// CallState is the lifecycle state of a call session.
type CallState int

const (
	CallIdle CallState = iota
	CallPlacing
	CallEstablished
	CallEnded
)

// CallSession is one real-time call, from placement request to termination.
type CallSession struct {
	ID           string
	RoomID       string
	State        CallState
	StartedAt    time.Time
	EndedAt      time.Time
	HangUpParty  string
	HangUpReason string
	Opponent     *callengine.Opponent
}

// CallConfig carries the session manager's tunables.
type CallConfig struct {
	DeviceID          string
	RoomID            string
	CallScreenTimeout time.Duration
	DoorOpenerTimeout time.Duration
	OpenDoorCmd       string
}

// CallSessionManager owns the active call session. At most one non-terminal
// session exists system-wide; all transitions happen inside the dispatcher
// loop.
type CallSessionManager struct {
	ctx      context.Context
	log      *zerolog.Logger
	timers   *TimerManager
	engine   callengine.Engine
	display  display.Display
	reporter report.Reporter
	pub      Publisher
	store    *StateStore
	cfg      CallConfig

	session *CallSession
}

// NewCallSessionManager builds the manager. ctx bounds external I/O issued
// from event handlers.
func NewCallSessionManager(
	ctx context.Context,
	logger *zerolog.Logger,
	timers *TimerManager,
	engine callengine.Engine,
	disp display.Display,
	reporter report.Reporter,
	pub Publisher,
	store *StateStore,
	cfg CallConfig,
) *CallSessionManager {
	return &CallSessionManager{
		ctx:      ctx,
		log:      logger,
		timers:   timers,
		engine:   engine,
		display:  disp,
		reporter: reporter,
		pub:      pub,
		store:    store,
		cfg:      cfg,
	}
}

// Register subscribes the manager's handlers on the dispatcher.
func (m *CallSessionManager) Register(d *Dispatcher) {
	d.Subscribe(EventStartCallRequested, func(Event) { m.handleStartRequested() })
	d.Subscribe(EventHangupRequested, func(Event) { m.handleHangupRequested() })
	d.Subscribe(EventCallEstablished, m.handleEstablished)
	d.Subscribe(EventCallFailed, m.handleFailed)
	d.Subscribe(EventCallHungUp, m.handleHungUp)
	d.Subscribe(EventRoomMessage, m.handleRoomMessage)
	d.Subscribe(EventTimerElapsed, m.handleTimerElapsed)
}

// IsActive reports whether a session exists in Placing or Established.
func (m *CallSessionManager) IsActive() bool {
	return m.session != nil && (m.session.State == CallPlacing || m.session.State == CallEstablished)
}

// Session returns the active session, or nil.
func (m *CallSessionManager) Session() *CallSession {
	return m.session
}

// StartCall places a new call. Rejected with already_active while a
// non-terminal session exists. A placement failure terminates the session
// through the same Ended path as a hangup.
func (m *CallSessionManager) StartCall() (*CallSession, error) {
	if m.IsActive() {
		m.log.Warn().Str("call_id", m.session.ID).Msg("call start rejected: session active")
		return nil, coreError(ErrCodeAlreadyActive, "a call session is already active")
	}

	m.session = &CallSession{
		ID:        uuid.New().String(),
		RoomID:    m.cfg.RoomID,
		State:     CallPlacing,
		StartedAt: time.Now(),
	}

	m.log.Info().Str("call_id", m.session.ID).Str("room_id", m.session.RoomID).Msg("placing call")
	m.display.SetCallButton(true)
	m.display.ShowScreen(display.ScreenCall)

	if err := m.engine.PlaceCall(m.ctx, m.session.ID, m.session.RoomID); err != nil {
		m.log.Error().Err(err).Str("call_id", m.session.ID).Msg("call placement failed")
		m.display.SetCallButton(false)
		m.timers.Schedule(TimerCallScreen, m.cfg.CallScreenTimeout)
		m.endSession("", ErrCodePlacementFailed)
		return nil, coreError(ErrCodePlacementFailed, "call placement failed")
	}

	return m.session, nil
}

// CloseCall requests termination of the active call. Cleanup happens in the
// hangup handler, keeping a single code path for all hangup causes. No-op
// without an active session.
func (m *CallSessionManager) CloseCall() {
	if !m.IsActive() {
		return
	}
	m.log.Info().Str("call_id", m.session.ID).Msg("closing call")
	if err := m.engine.Hangup(m.ctx, m.session.ID, callengine.ReasonUserHangup); err != nil {
		m.log.Error().Err(err).Str("call_id", m.session.ID).Msg("hangup request failed")
		m.handleFailed(Event{Kind: EventCallFailed, CallID: m.session.ID, Err: err})
	}
}

func (m *CallSessionManager) handleStartRequested() {
	m.reportVisitor(report.VisitorStartCall)
	if _, err := m.StartCall(); err != nil {
		m.log.Warn().Err(err).Msg("start call request not served")
	}
}

func (m *CallSessionManager) handleHangupRequested() {
	m.reportVisitor(report.VisitorHangUpCall)
	m.CloseCall()
}

func (m *CallSessionManager) handleEstablished(ev Event) {
	if m.session == nil || m.session.State != CallPlacing || ev.CallID != m.session.ID {
		m.log.Debug().Str("call_id", ev.CallID).Msg("ignoring established event for unknown call")
		return
	}

	m.session.State = CallEstablished
	m.session.Opponent = ev.Opponent
	m.timers.Cancel(TimerCallScreen)

	m.log.Info().Str("call_id", m.session.ID).Int("feeds", len(ev.Feeds)).Msg("call established")
	m.display.SetCallFeeds(ev.Feeds)
	m.display.SetCallButton(true)
}

func (m *CallSessionManager) handleFailed(ev Event) {
	if m.session == nil || ev.CallID != m.session.ID {
		return
	}

	m.log.Error().Err(ev.Err).Str("call_id", m.session.ID).Msg("call failed")
	m.display.SetCallButton(false)
	m.timers.Schedule(TimerCallScreen, m.cfg.CallScreenTimeout)
	m.endSession(callengine.PartyRemote, ErrCodeProtocolError)
}

func (m *CallSessionManager) handleHungUp(ev Event) {
	if m.session == nil || ev.CallID != m.session.ID {
		return
	}

	m.log.Info().Str("call_id", m.session.ID).Str("party", ev.Party).Str("reason", ev.Reason).Msg("call hung up")

	// A clean hangup or invite timeout returns to the intro screen
	// immediately; anything else keeps the call screen briefly.
	switch ev.Reason {
	case callengine.ReasonUserHangup, callengine.ReasonInviteTimeout:
		m.timers.Cancel(TimerCallScreen)
		m.display.ShowScreen(display.ScreenIntro)
	default:
		m.timers.Schedule(TimerCallScreen, m.cfg.CallScreenTimeout)
	}

	m.display.SetCallButton(false)
	m.endSession(ev.Party, ev.Reason)
}

func (m *CallSessionManager) handleRoomMessage(ev Event) {
	if m.cfg.OpenDoorCmd == "" || !strings.Contains(ev.Body, m.cfg.OpenDoorCmd) {
		return
	}
	m.log.Info().Str("call_id", ev.CallID).Msg("door opener command received")
	m.OpenDoor()
}

// OpenDoor activates the electric door opener and schedules its reversion.
// The timer guarantees exactly one doorOpener=0 publish even if no broker
// echo arrives in between.
func (m *CallSessionManager) OpenDoor() {
	m.pub.Publish(TopicDoorOpener, DoorOpenerOn)
	m.timers.Schedule(TimerDoorOpener, m.cfg.DoorOpenerTimeout)
}

func (m *CallSessionManager) handleTimerElapsed(ev Event) {
	switch ev.TimerKey {
	case TimerCallScreen:
		m.display.ShowScreen(display.ScreenIntro)
	case TimerDoorOpener:
		m.pub.Publish(TopicDoorOpener, DoorOpenerOff)
	}
}

// endSession transitions the session to Ended, reports it exactly once and
// discards it. The single exit point for every termination cause.
func (m *CallSessionManager) endSession(party, reason string) {
	s := m.session
	if s == nil || s.State == CallEnded {
		return
	}

	s.State = CallEnded
	s.EndedAt = time.Now()
	s.HangUpParty = party
	s.HangUpReason = reason
	m.session = nil

	rec := report.Call{
		CallID:       s.ID,
		DeviceID:     m.cfg.DeviceID,
		RoomID:       s.RoomID,
		Direction:    report.DirectionOutbound,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		HangUpParty:  s.HangUpParty,
		HangUpReason: s.HangUpReason,
	}
	if err := m.reporter.ReportCall(m.ctx, rec); err != nil {
		m.log.Error().Err(err).Str("call_id", s.ID).Msg("call report failed")
		return
	}

	if s.Opponent != nil {
		p := report.Participant{
			CallID:         s.ID,
			RawDisplayName: s.Opponent.DisplayName,
			MatrixDeviceID: s.Opponent.DeviceID,
			MXID:           s.Opponent.UserID,
		}
		if err := m.reporter.ReportParticipant(m.ctx, p); err != nil {
			m.log.Error().Err(err).Str("call_id", s.ID).Msg("participant report failed")
		}
	}
}

func (m *CallSessionManager) reportVisitor(kind report.VisitorEventType) {
	ev := report.VisitorEvent{
		DeviceID:    m.cfg.DeviceID,
		Type:        kind,
		TriggeredAt: time.Now(),
		Snapshot:    m.store.Snapshot(),
	}
	if err := m.reporter.ReportVisitorEvent(m.ctx, ev); err != nil {
		m.log.Error().Err(err).Str("type", string(kind)).Msg("visitor report failed")
	}
}
