// Package service exposes the prioritized store behind a coarse lock so a
// single shared instance can serve environment adapters and a training loop.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/cartridge/experience/internal/events"
	"github.com/cartridge/experience/internal/metrics"
	"github.com/cartridge/experience/internal/replay"
)

// Stats is a point-in-time snapshot of the buffer and tree.
type Stats struct {
	BufferLen    int     `json:"buffer_len"`
	Capacity     int     `json:"capacity"`
	TreeSize     int     `json:"tree_size"`
	TreeDepth    int     `json:"tree_depth"`
	StaleSkipped uint64  `json:"stale_skipped"`
	Episodes     uint64  `json:"episodes"`
	RewardMean   float64 `json:"reward_mean"`
	RewardStdDev float64 `json:"reward_std_dev"`
}

// Sampler serializes access to the prioritized store. The store itself
// assumes exclusive access per call; this is the coarse lock around the
// buffer+tree pair that a shared deployment needs.
type Sampler struct {
	mu        sync.Mutex
	store     *replay.Store
	batchSize int
	episodeID string
	episodes  uint64

	events  events.Publisher
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewSampler wires the store to its collaborators. batchSize is the
// mini-batch size used for every draw; it is validated by config before
// construction.
func NewSampler(store *replay.Store, batchSize int, publisher events.Publisher, logger zerolog.Logger) *Sampler {
	return &Sampler{
		store:     store,
		batchSize: batchSize,
		episodeID: uuid.New().String(),
		events:    publisher,
		metrics:   metrics.NewCollector(logger),
		logger:    logger,
	}
}

// AddTransition appends a transition, trims the buffer back under capacity
// and returns the assigned index.
func (s *Sampler) AddTransition(ctx context.Context, state []float32, action int, reward float32) int {
	s.mu.Lock()
	idx := s.store.Add(state, action, reward)
	trimmed := s.store.Trim()
	bufferLen := s.store.Len()
	episodeID := s.episodeID
	s.mu.Unlock()

	s.metrics.TransitionStored(idx, bufferLen, trimmed)
	if err := s.events.PublishTransitionStored(ctx, events.TransitionStoredEvent{
		EpisodeID: episodeID,
		Index:     idx,
		BufferLen: bufferLen,
		Trimmed:   trimmed,
	}); err != nil {
		s.logger.Error().Err(err).Int("index", idx).Msg("failed to publish transition event")
	}
	return idx
}

// AddTerminal marks the current episode as finished and starts a new one.
// Returns false when no transition has been stored yet.
func (s *Sampler) AddTerminal(ctx context.Context) (int, bool) {
	s.mu.Lock()
	idx, ok := s.store.AddTerminal()
	if !ok {
		s.mu.Unlock()
		return 0, false
	}
	bufferLen := s.store.Len()
	episodeID := s.episodeID
	s.episodeID = uuid.New().String()
	s.episodes++
	s.mu.Unlock()

	s.logger.Info().Str("episode_id", episodeID).Int("terminal_index", idx).Msg("episode finished")
	if err := s.events.PublishTransitionStored(ctx, events.TransitionStoredEvent{
		EpisodeID: episodeID,
		Index:     idx,
		Terminal:  true,
		BufferLen: bufferLen,
	}); err != nil {
		s.logger.Error().Err(err).Int("index", idx).Msg("failed to publish terminal event")
	}
	return idx, true
}

// Sample draws one prioritized mini-batch, or nil while the buffer holds
// too little experience.
func (s *Sampler) Sample(ctx context.Context) *replay.Batch {
	start := time.Now()

	s.mu.Lock()
	batch := s.store.Sample(s.batchSize)
	treeSize := s.store.TreeSize()
	treeDepth := s.store.TreeDepth()
	s.mu.Unlock()

	if batch == nil {
		s.logger.Debug().Int("batch_size", s.batchSize).Msg("insufficient experience for batch")
		return nil
	}

	s.metrics.BatchSampled(s.batchSize, batch.Len(), treeSize, treeDepth, time.Since(start))
	if err := s.events.PublishBatchSampled(ctx, events.BatchSampledEvent{
		Requested: s.batchSize,
		Returned:  batch.Len(),
		Indices:   batch.Indices,
		TreeSize:  treeSize,
	}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish sample event")
	}
	return batch
}

// UpdatePriorities reports refined TD-error priorities for a previously
// sampled batch, returning its entries to the sampling pool.
func (s *Sampler) UpdatePriorities(ctx context.Context, priorities []float64, indices []int) error {
	s.mu.Lock()
	err := s.store.UpdatePriorities(priorities, indices)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	maxPriority := 0.0
	for _, p := range priorities {
		if p > maxPriority {
			maxPriority = p
		}
	}

	s.metrics.PrioritiesUpdated(len(indices))
	if err := s.events.PublishPrioritiesUpdated(ctx, events.PrioritiesUpdatedEvent{
		Count:       len(indices),
		MaxPriority: maxPriority,
	}); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish priority event")
	}
	return nil
}

// Stats snapshots buffer occupancy, tree shape and reward statistics.
func (s *Sampler) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	rewards := s.store.Rewards()
	snapshot := Stats{
		BufferLen:    s.store.Len(),
		Capacity:     s.store.Capacity(),
		TreeSize:     s.store.TreeSize(),
		TreeDepth:    s.store.TreeDepth(),
		StaleSkipped: s.store.StaleSkipped(),
		Episodes:     s.episodes,
	}
	s.mu.Unlock()

	if len(rewards) > 0 {
		snapshot.RewardMean = stat.Mean(rewards, nil)
		if len(rewards) > 1 {
			snapshot.RewardStdDev = stat.StdDev(rewards, nil)
		}
	}
	return snapshot
}

// BatchSize returns the configured mini-batch size.
func (s *Sampler) BatchSize() int {
	return s.batchSize
}
