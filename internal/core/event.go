package core

import "github.com/openintercom/intercomd/internal/callengine"

// EventKind classifies an input on the dispatcher queue. Every asynchronous
// source (broker, call engine, timers, panel actions) enters the system as
// one of these.
type EventKind int

const (
	// EventBrokerMessage carries a raw payload received on a broker topic.
	EventBrokerMessage EventKind = iota
	// EventStateChanged notifies that a stored device state took a new value.
	EventStateChanged
	// EventTimerElapsed is the synthetic event a fired timer delivers.
	EventTimerElapsed
	// EventRingPressed is the visitor pressing the ring button.
	EventRingPressed
	// EventStartCallRequested is the visitor pressing the call button.
	EventStartCallRequested
	// EventHangupRequested is the visitor pressing the hang-up button.
	EventHangupRequested
	// EventCallEstablished reports that a placed call has media feeds.
	EventCallEstablished
	// EventCallFailed reports an unrecoverable call engine error.
	EventCallFailed
	// EventCallHungUp reports call termination by either party.
	EventCallHungUp
	// EventRoomMessage carries a text message from the call room.
	EventRoomMessage
	// EventBrokerConnection reports broker connect/disconnect, for observability.
	EventBrokerConnection
)

// Event is one serialized input. Only the fields relevant to its Kind are set.
type Event struct {
	Kind EventKind

	// Broker and state fields.
	Topic     Topic
	Payload   string
	Old       string
	New       string
	Connected bool

	// Timer fields.
	TimerKey string

	// Call fields.
	CallID   string
	Feeds    []callengine.Feed
	Opponent *callengine.Opponent
	Err      error
	Party    string
	Reason   string
	Body     string
}
