package proto

import "github.com/openintercom/intercomd/internal/callengine"

// Wire protocol between the orchestrator and the panel over the websocket.

const (
	ProtocolVersion = 1

	// Inbound actions from the panel.
	InboundTypeRing      = "ring"
	InboundTypeStartCall = "start_call"
	InboundTypeHangUp    = "hang_up"

	// Outbound commands to the panel.
	OutboundTypeScreen     = "screen"
	OutboundTypeFeeds      = "feeds"
	OutboundTypeCallButton = "call_button"
	OutboundTypeError      = "error"
)

// Inbound is the envelope for panel actions.
type Inbound struct {
	Type string `json:"type"`
}

// Outbound is the envelope for commands sent to the panel.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ScreenData tells the panel which screen to show.
type ScreenData struct {
	Screen string `json:"screen"`
}

// FeedsData carries media attach credentials for the call screen.
type FeedsData struct {
	Feeds []callengine.Feed `json:"feeds"`
}

// CallButtonData toggles the call button.
type CallButtonData struct {
	Active bool `json:"active"`
}

// Error reports a protocol-level problem to the panel.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
