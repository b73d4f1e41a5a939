package bridge

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/config"
	"github.com/openintercom/intercomd/internal/core"
)

// Bridge connects the orchestrator to the message broker. Inbound messages
// are enqueued on the dispatcher; outbound publishes are fire-and-forget and
// silently dropped while disconnected.
type Bridge struct {
	log    *zerolog.Logger
	d      *core.Dispatcher
	client mqtt.Client
}

// New builds the bridge. The client subscribes to every device topic each
// time a connection is established, so subscriptions survive reconnects.
func New(cfg config.MQTT, d *core.Dispatcher, logger *zerolog.Logger) *Bridge {
	b := &Bridge{log: logger, d: d}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	// Unique client id so a restarted device does not kick its own session.
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		b.log.Info().Str("broker", cfg.BrokerURL).Msg("connected to broker")
		b.subscribe(client)
		b.d.Publish(core.Event{Kind: core.EventBrokerConnection, Connected: true})
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Warn().Err(err).Msg("broker connection lost")
		b.d.Publish(core.Event{Kind: core.EventBrokerConnection, Connected: false})
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		b.log.Info().Msg("reconnecting to broker")
	})

	b.client = mqtt.NewClient(opts)
	return b
}

// Connect establishes the broker connection, honoring ctx for the initial
// attempt.
func (b *Bridge) Connect(ctx context.Context) error {
	token := b.client.Connect()

	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	return nil
}

// Publish sends an outbound device command. No acknowledgement is awaited;
// commands issued while disconnected are lost.
func (b *Bridge) Publish(topic core.Topic, value string) {
	if !b.client.IsConnected() {
		b.log.Warn().
			Str("topic", string(topic)).
			Str("value", value).
			Str("code", core.ErrCodeTransportDisconnected).
			Msg("broker disconnected, dropping command")
		return
	}
	b.log.Debug().Str("topic", string(topic)).Str("value", value).Msg("publishing")
	b.client.Publish(string(topic), 0, false, value)
}

// Disconnect closes the broker connection.
func (b *Bridge) Disconnect() {
	b.client.Disconnect(250)
}

func (b *Bridge) subscribe(client mqtt.Client) {
	for _, topic := range core.Topics() {
		topic := topic
		token := client.Subscribe(string(topic), 0, func(_ mqtt.Client, msg mqtt.Message) {
			b.d.Publish(core.Event{
				Kind:    core.EventBrokerMessage,
				Topic:   core.Topic(msg.Topic()),
				Payload: string(msg.Payload()),
			})
		})
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				b.log.Error().Err(err).Str("topic", string(topic)).Msg("subscribe failed")
			} else {
				b.log.Debug().Str("topic", string(topic)).Msg("subscribed")
			}
		}()
	}
}

var _ core.Publisher = (*Bridge)(nil)
