package callengine

import "context"

// Hangup reasons reported by the engine. The orchestration core only
// distinguishes clean user hangups and invite timeouts from everything else.
const (
	ReasonUserHangup    = "user_hangup"
	ReasonInviteTimeout = "invite_timeout"
)

// Hangup parties.
const (
	PartyUser   = "user"
	PartyRemote = "remote"
)

// Feed carries what the panel needs to attach one media stream.
type Feed struct {
	URL      string `json:"url"`       // media server WebSocket URL
	Token    string `json:"token"`     // access token scoped to the room
	RoomName string `json:"room_name"` // media room name
	Identity string `json:"identity"`  // this device's identity in the room
}

// Opponent identifies the remote party of an established call.
type Opponent struct {
	DisplayName string
	UserID      string
	DeviceID    string
}

// Events is how the engine reports asynchronous call progress back to the
// orchestrator. Implementations must be safe to call from engine goroutines;
// the orchestrator funnels every callback through its dispatcher queue.
type Events interface {
	CallEstablished(callID string, feeds []Feed, opponent *Opponent)
	CallError(callID string, err error)
	CallHangup(callID, party, reason string)
	RoomMessage(callID, body string)
}

// Engine abstracts the real-time call backend.
type Engine interface {
	// PlaceCall asks the backend to place a call into the given room.
	// Progress past placement arrives via Events.
	PlaceCall(ctx context.Context, callID, roomID string) error

	// Hangup terminates the call. Completion is reported via Events.CallHangup,
	// keeping a single cleanup path for all hangup causes.
	Hangup(ctx context.Context, callID, reason string) error
}
