package http

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/callengine"
	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/proto"
)

// panelConn is one attached panel as seen by the hub.
type panelConn struct {
	id       string
	outbound chan proto.Outbound
}

// PanelHub fans display commands out to every attached panel. It implements
// display.Display, so the orchestration core drives screens without knowing
// about websockets.
type PanelHub struct {
	log *zerolog.Logger

	mu    sync.Mutex
	conns map[*panelConn]struct{}
}

// NewPanelHub builds a hub with no attached panels.
func NewPanelHub(logger *zerolog.Logger) *PanelHub {
	return &PanelHub{
		log:   logger,
		conns: make(map[*panelConn]struct{}),
	}
}

func (h *PanelHub) attach(c *panelConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Info().Str("panel_id", c.id).Int("panels", n).Msg("panel attached")
}

func (h *PanelHub) detach(c *panelConn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	h.log.Info().Str("panel_id", c.id).Int("panels", n).Msg("panel detached")
}

// broadcast sends a command to all panels, dropping for slow consumers.
func (h *PanelHub) broadcast(msg proto.Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.outbound <- msg:
		default:
			h.log.Warn().Str("panel_id", c.id).Str("type", msg.Type).Msg("panel slow, dropping command")
		}
	}
}

// ShowScreen tells every panel which screen to show.
func (h *PanelHub) ShowScreen(screen display.Screen) {
	h.broadcast(proto.Outbound{
		Type: proto.OutboundTypeScreen,
		Data: proto.ScreenData{Screen: string(screen)},
	})
}

// SetCallFeeds delivers media attach credentials for the call screen.
func (h *PanelHub) SetCallFeeds(feeds []callengine.Feed) {
	h.broadcast(proto.Outbound{
		Type: proto.OutboundTypeFeeds,
		Data: proto.FeedsData{Feeds: feeds},
	})
}

// SetCallButton toggles the call button on every panel.
func (h *PanelHub) SetCallButton(active bool) {
	h.broadcast(proto.Outbound{
		Type: proto.OutboundTypeCallButton,
		Data: proto.CallButtonData{Active: active},
	})
}

var _ display.Display = (*PanelHub)(nil)
