package http

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/core"
	"github.com/openintercom/intercomd/internal/proto"
)

// NewWSHandler upgrades panel connections and bridges them to the hub:
// outbound display commands flow panel-ward, inbound visitor actions are
// enqueued on the dispatcher.
func NewWSHandler(hub *PanelHub, d *core.Dispatcher, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error().Err(err).Msg("ws accept error")
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		panel := &panelConn{
			id:       uuid.New().String()[:8],
			outbound: make(chan proto.Outbound, 16),
		}
		hub.attach(panel)
		defer hub.detach(panel)

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		errCh := make(chan error, 2)
		go func() {
			errCh <- readLoop(ctx, conn, panel, d, logger)
		}()
		go func() {
			errCh <- writeLoop(ctx, conn, panel)
		}()

		err = <-errCh
		cancel() // stop the other goroutine
		<-errCh

		status := websocket.StatusNormalClosure
		reason := "closing"
		if err != nil && !errors.Is(err, context.Canceled) {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			if s := websocket.CloseStatus(err); s != 0 {
				status = s
			}
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				err = nil
			}
			if err != nil {
				if status == websocket.StatusNormalClosure {
					status = websocket.StatusInternalError
				}
				reason = err.Error()
				logger.Warn().Err(err).Str("panel_id", panel.id).Msg("panel connection closed with error")
			}
		}

		conn.Close(status, reason)
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, panel *panelConn, d *core.Dispatcher, logger *zerolog.Logger) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		ev, ok := actionToEvent(inbound.Type)
		if !ok {
			logger.Warn().Str("panel_id", panel.id).Str("type", inbound.Type).Msg("unknown panel action")
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "bad_request", Message: "unknown action " + inbound.Type},
			}); err != nil {
				return err
			}
			continue
		}

		d.Publish(ev)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, panel *panelConn) error {
	for {
		select {
		case msg := <-panel.outbound:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func actionToEvent(action string) (core.Event, bool) {
	switch action {
	case proto.InboundTypeRing:
		return core.Event{Kind: core.EventRingPressed}, true
	case proto.InboundTypeStartCall:
		return core.Event{Kind: core.EventStartCallRequested}, true
	case proto.InboundTypeHangUp:
		return core.Event{Kind: core.EventHangupRequested}, true
	default:
		return core.Event{}, false
	}
}
