// Package metrics emits operational metrics as structured log events.
package metrics

import (
	"time"

	"github.com/rs/zerolog"
)

// Collector for replay buffer operations.
type Collector struct {
	logger zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// Track transition appends
func (c *Collector) TransitionStored(index, bufferLen, trimmed int) {
	c.logger.Info().
		Str("metric", "transition_stored").
		Int("index", index).
		Int("buffer_len", bufferLen).
		Int("trimmed", trimmed).
		Msg("Transition metric")
}

// Track prioritized draws
func (c *Collector) BatchSampled(requested, returned, treeSize, treeDepth int, latency time.Duration) {
	c.logger.Info().
		Str("metric", "batch_sampled").
		Int("requested", requested).
		Int("returned", returned).
		Int("tree_size", treeSize).
		Int("tree_depth", treeDepth).
		Dur("latency", latency).
		Msg("Sample metric")
}

// Track priority reinsertion
func (c *Collector) PrioritiesUpdated(count int) {
	c.logger.Info().
		Str("metric", "priorities_updated").
		Int("count", count).
		Msg("Priority metric")
}
