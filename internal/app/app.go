package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/auth"
	"github.com/openintercom/intercomd/internal/bridge"
	"github.com/openintercom/intercomd/internal/callengine"
	"github.com/openintercom/intercomd/internal/callengine/livekit"
	"github.com/openintercom/intercomd/internal/config"
	"github.com/openintercom/intercomd/internal/core"
	"github.com/openintercom/intercomd/internal/display"
	"github.com/openintercom/intercomd/internal/log"
	reportsqlite "github.com/openintercom/intercomd/internal/report/sqlite"
	transporthttp "github.com/openintercom/intercomd/internal/transport/http"
)

// App wires the orchestration core to its collaborators: broker bridge, call
// engine, panel transport and report store.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	dispatcher      *core.Dispatcher
	bridge          *bridge.Bridge
	reports         *reportsqlite.Store
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration. ctx bounds
// external I/O issued by event handlers for the process lifetime.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	reports, err := reportsqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init report store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("report store initialized")

	dispatcher := core.NewDispatcher(log.Component(logger, "dispatcher"))

	store := core.NewStateStore(dispatcher, log.Component(logger, "store"))
	store.Register()

	timers := core.NewTimerManager(dispatcher)

	br := bridge.New(cfg.MQTT, dispatcher, log.Component(logger, "bridge"))

	hub := transporthttp.NewPanelHub(log.Component(logger, "panel"))
	var panel display.Display = hub

	engine := livekit.New(
		cfg.Call.APIKey,
		cfg.Call.APISecret,
		cfg.Call.WSURL,
		cfg.DeviceID,
		engineEvents{d: dispatcher},
	)

	calls := core.NewCallSessionManager(ctx, log.Component(logger, "calls"), timers, engine, panel, reports, br, store, core.CallConfig{
		DeviceID:          cfg.DeviceID,
		RoomID:            cfg.Call.RoomID,
		CallScreenTimeout: cfg.Timeouts.CallScreen,
		DoorOpenerTimeout: cfg.Timeouts.DoorOpener,
		OpenDoorCmd:       cfg.Call.OpenDoorCmd,
	})
	calls.Register(dispatcher)

	ring := core.NewRingWorkflow(ctx, log.Component(logger, "ring"), store, timers, br, panel, reports, calls, core.RingConfig{
		DeviceID:          cfg.DeviceID,
		RingScreenTimeout: cfg.Timeouts.RingScreen,
		DoorScreenTimeout: cfg.Timeouts.DoorScreen,
	})
	ring.Register(dispatcher)

	// Observability consumers: connection transitions and committed state
	// changes land in the log in dispatch order.
	obs := log.Component(logger, "events")
	dispatcher.Subscribe(core.EventBrokerConnection, func(ev core.Event) {
		obs.Info().Bool("connected", ev.Connected).Msg("broker connection changed")
	})
	dispatcher.Subscribe(core.EventStateChanged, func(ev core.Event) {
		obs.Debug().Str("topic", string(ev.Topic)).Str("old", ev.Old).Str("new", ev.New).Msg("state changed")
	})

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.Auth.Secret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.TTL,
	}
	authService := auth.NewService(jwtConfig, cfg.DeviceID, cfg.Auth.ProvisioningSecretHash)

	server := transporthttp.NewServer(cfg, authService, hub, dispatcher, log.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		dispatcher:      dispatcher,
		bridge:          br,
		reports:         reports,
		log:             logger,
	}, nil
}

// Run starts the dispatcher loop, broker connection and HTTP server, and
// blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.dispatcher.Run(ctx)

	go func() {
		// The bridge retries until the broker is reachable; losing the
		// broker is not fatal to the device.
		if err := a.bridge.Connect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("broker connect aborted")
		}
	}()

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup disconnects the broker and closes the report store.
func (a *App) cleanup() {
	a.bridge.Disconnect()
	if err := a.reports.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close report store")
	} else {
		a.log.Info().Msg("report store closed")
	}
}

// engineEvents funnels call engine callbacks into the dispatcher queue; the
// engine never touches orchestration state directly.
type engineEvents struct {
	d *core.Dispatcher
}

func (e engineEvents) CallEstablished(callID string, feeds []callengine.Feed, opponent *callengine.Opponent) {
	e.d.Publish(core.Event{Kind: core.EventCallEstablished, CallID: callID, Feeds: feeds, Opponent: opponent})
}

func (e engineEvents) CallError(callID string, err error) {
	e.d.Publish(core.Event{Kind: core.EventCallFailed, CallID: callID, Err: err})
}

func (e engineEvents) CallHangup(callID, party, reason string) {
	e.d.Publish(core.Event{Kind: core.EventCallHungUp, CallID: callID, Party: party, Reason: reason})
}

func (e engineEvents) RoomMessage(callID, body string) {
	e.d.Publish(core.Event{Kind: core.EventRoomMessage, CallID: callID, Body: body})
}

var _ callengine.Events = engineEvents{}
