package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/nats-io/nats.go"
)

// BridgeConfig configures the optional NATS mirror.
type BridgeConfig struct {
	URL            string
	MissionsTopic  string
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// DefaultBridgeConfig returns sane defaults for local development.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		URL:           "nats://localhost:4222",
		MissionsTopic: "missions/updates",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: 60,
	}
}

// Bridge mirrors in-process bus events onto NATS subjects so external
// collaborators (dispatch consoles, asset trackers) can observe mission
// lifecycle changes without talking to the HTTP API.
type Bridge struct {
	nc            *nats.Conn
	missionsTopic string
}

// NewBridge connects to NATS and returns a Bridge, or an error if the broker
// is unreachable. Connection failures here must not prevent the rest of the
// service from starting; callers should log and continue without a bridge.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[EventBridge] reconnected to NATS: %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("[EventBridge] disconnected from NATS: %v", err)
			}
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		observability.UpdateNATSConnectionStatus(false)
		return nil, err
	}
	observability.UpdateNATSConnectionStatus(true)

	topic := cfg.MissionsTopic
	if topic == "" {
		topic = "missions/updates"
	}
	return &Bridge{nc: nc, missionsTopic: topic}, nil
}

// Attach subscribes to the bus's "missions" topic and mirrors every event
// onto the bridge's NATS subject. It never returns an error to the bus: a
// marshal or publish failure is logged and dropped, consistent with the
// bus's policy that subscriber failures never propagate to the publisher.
func (b *Bridge) Attach(bus *Bus) {
	bus.Subscribe("missions", func(_ context.Context, e Event) error {
		data, err := json.Marshal(e.Payload)
		if err != nil {
			log.Printf("[EventBridge] failed to marshal mission event: %v", err)
			return nil
		}
		if err := b.nc.Publish(b.missionsTopic, data); err != nil {
			log.Printf("[EventBridge] failed to publish to %s: %v", b.missionsTopic, err)
			return nil
		}
		observability.GetMetrics().NATSMessagesPublished.WithLabelValues(b.missionsTopic).Inc()
		return nil
	})
}

// Close drains and closes the underlying NATS connection.
func (b *Bridge) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}
