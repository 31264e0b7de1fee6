package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher implements Publisher using NATS.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher creates a new NATS-backed publisher.
func NewNATSPublisher(natsURL, subject string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}, nil
}

// Close closes the NATS connection.
func (n *NATSPublisher) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

// PublishTransitionStored publishes transition events; terminal transitions
// additionally go out on a routing key for episode-boundary consumers.
func (n *NATSPublisher) PublishTransitionStored(ctx context.Context, event TransitionStoredEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := n.subject + ".transitions"
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish transition event")
		return err
	}

	if event.Terminal {
		routingKey := subject + ".terminal"
		if err := n.conn.Publish(routingKey, data); err != nil {
			n.logger.Error().Err(err).Str("routing_key", routingKey).Msg("Failed to publish to routing key")
		}
	}

	n.logger.Debug().
		Str("episode_id", event.EpisodeID).
		Int("index", event.Index).
		Bool("terminal", event.Terminal).
		Str("subject", subject).
		Msg("Published transition event")

	return nil
}

// PublishBatchSampled publishes batch draw events.
func (n *NATSPublisher) PublishBatchSampled(ctx context.Context, event BatchSampledEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := n.subject + ".samples"
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish sample event")
		return err
	}

	n.logger.Debug().
		Int("returned", event.Returned).
		Int("tree_size", event.TreeSize).
		Str("subject", subject).
		Msg("Published sample event")

	return nil
}

// PublishPrioritiesUpdated publishes priority reinsertion events.
func (n *NATSPublisher) PublishPrioritiesUpdated(ctx context.Context, event PrioritiesUpdatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := n.subject + ".priorities"
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish priority event")
		return err
	}

	n.logger.Debug().
		Int("count", event.Count).
		Float64("max_priority", event.MaxPriority).
		Str("subject", subject).
		Msg("Published priority event")

	return nil
}
