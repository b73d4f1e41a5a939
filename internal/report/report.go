package report

import (
	"context"
	"time"
)

// CallDirection of a reported call. The device only places outbound calls
// today, but the record format keeps the field for round-trip compatibility
// with existing report consumers.
type CallDirection string

const (
	DirectionOutbound CallDirection = "outbound"
	DirectionInbound  CallDirection = "inbound"
)

// Call is the terminal record of one call session, written exactly once
// when the session ends.
type Call struct {
	CallID       string
	DeviceID     string
	RoomID       string
	Direction    CallDirection
	StartedAt    time.Time
	EndedAt      time.Time
	HangUpParty  string
	HangUpReason string
}

// Participant is the optional opponent record following a call report.
type Participant struct {
	CallID         string
	RawDisplayName string
	MatrixDeviceID string
	MXID           string
}

// VisitorEventType classifies visitor-input reports.
type VisitorEventType string

const (
	VisitorInitRing   VisitorEventType = "INIT_RING"
	VisitorStartCall  VisitorEventType = "START_CALL"
	VisitorHangUpCall VisitorEventType = "HANG_UP_CALL"
)

// StateSnapshot captures the observed device states at the moment a visitor
// interacted with the intercom.
type StateSnapshot struct {
	Presence string `json:"presenceState"`
	DoorBell string `json:"doorBellState"`
	Door     string `json:"doorState"`
}

// VisitorEvent records one visitor interaction with the device.
type VisitorEvent struct {
	DeviceID    string
	Type        VisitorEventType
	TriggeredAt time.Time
	Snapshot    StateSnapshot
}

// Reporter is the reporting collaborator. Failures are logged by callers and
// never retried; reporting must not block orchestration.
type Reporter interface {
	ReportCall(ctx context.Context, call Call) error
	ReportParticipant(ctx context.Context, p Participant) error
	ReportVisitorEvent(ctx context.Context, ev VisitorEvent) error
}
