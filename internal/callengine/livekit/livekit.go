package livekit

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/openintercom/intercomd/internal/callengine"
)

// Engine implements callengine.Engine using LiveKit as the media backend.
type Engine struct {
	apiKey    string
	apiSecret string
	wsURL     string
	identity  string
	events    callengine.Events
}

// New creates a LiveKit-backed engine. Asynchronous call progress is
// delivered through events.
func New(apiKey, apiSecret, wsURL, identity string, events callengine.Events) *Engine {
	return &Engine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
		identity:  identity,
		events:    events,
	}
}

// PlaceCall creates join credentials for the configured room. LiveKit creates
// rooms on demand when the first participant connects, so placement succeeds
// as soon as a token can be minted; the established event carries the feed the
// panel attaches.
func (e *Engine) PlaceCall(_ context.Context, callID, roomID string) error {
	roomName := fmt.Sprintf("intercom-%s-%s", roomID, callID)

	token, err := e.joinToken(roomName)
	if err != nil {
		return fmt.Errorf("mint join token: %w", err)
	}

	feed := callengine.Feed{
		URL:      e.wsURL,
		Token:    token,
		RoomName: roomName,
		Identity: e.identity,
	}

	// Re-enter the orchestrator as a queued event, never synchronously.
	go e.events.CallEstablished(callID, []callengine.Feed{feed}, nil)
	return nil
}

// Hangup reports the hangup back through the event path. Rooms auto-expire
// once empty, so no room teardown call is needed for the dev backend.
func (e *Engine) Hangup(_ context.Context, callID, reason string) error {
	go e.events.CallHangup(callID, callengine.PartyUser, reason)
	return nil
}

func (e *Engine) joinToken(roomName string) (string, error) {
	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.SetVideoGrant(grant).
		SetIdentity(e.identity).
		SetValidFor(time.Hour)

	return at.ToJWT()
}

var _ callengine.Engine = (*Engine)(nil)
