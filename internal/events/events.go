// Package events publishes replay buffer lifecycle events for downstream
// consumers (monitoring, experiment dashboards).
package events

import "context"

// Publisher is implemented by downstream fan-out mechanisms.
type Publisher interface {
	PublishTransitionStored(ctx context.Context, payload TransitionStoredEvent) error
	PublishBatchSampled(ctx context.Context, payload BatchSampledEvent) error
	PublishPrioritiesUpdated(ctx context.Context, payload PrioritiesUpdatedEvent) error
}

// TransitionStoredEvent is emitted whenever a transition is appended.
type TransitionStoredEvent struct {
	EpisodeID string `json:"episode_id"`
	Index     int    `json:"index"`
	Terminal  bool   `json:"terminal"`
	BufferLen int    `json:"buffer_len"`
	Trimmed   int    `json:"trimmed,omitempty"`
}

// BatchSampledEvent tracks each prioritized draw.
type BatchSampledEvent struct {
	Requested int   `json:"requested"`
	Returned  int   `json:"returned"`
	Indices   []int `json:"indices"`
	TreeSize  int   `json:"tree_size"`
}

// PrioritiesUpdatedEvent is emitted when a training step reports refined
// TD-error priorities.
type PrioritiesUpdatedEvent struct {
	Count       int     `json:"count"`
	MaxPriority float64 `json:"max_priority"`
}

// NoopPublisher logs nothing; useful for tests.
type NoopPublisher struct{}

// PublishTransitionStored satisfies Publisher.
func (NoopPublisher) PublishTransitionStored(context.Context, TransitionStoredEvent) error {
	return nil
}

// PublishBatchSampled satisfies Publisher.
func (NoopPublisher) PublishBatchSampled(context.Context, BatchSampledEvent) error { return nil }

// PublishPrioritiesUpdated satisfies Publisher.
func (NoopPublisher) PublishPrioritiesUpdated(context.Context, PrioritiesUpdatedEvent) error {
	return nil
}
