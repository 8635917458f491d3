package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
)

// stallResetTargets maps each processing status back to the stage start it
// should be reclaimed to when a worker dies mid-stage.
var stallResetTargets = map[queue.Status]queue.Status{
	queue.StatusMetadataFetching: queue.StatusCreated,
	queue.StatusDownloading:      queue.StatusMetadataFetched,
	queue.StatusValidating:       queue.StatusDownloaded,
	queue.StatusAudioExtracting:  queue.StatusValidated,
	queue.StatusTranscribing:     queue.StatusAudioExtracted,
	// A crash between the repairing commit and the repair decision loses the
	// stage context, so the walk restarts from intake. Artifacts and retry
	// counters survive the reset.
	queue.StatusRepairing: queue.StatusCreated,
}

// StallMonitor watches for items stuck in a processing status past the
// configured window and returns them to the start of their stage so a live
// worker can pick them up again.
type StallMonitor struct {
	store  *queue.Store
	logger *slog.Logger
	window time.Duration
	every  time.Duration

	mu      sync.RWMutex
	stalled []int64
}

// NewStallMonitor builds a monitor from the configured stall window.
func NewStallMonitor(cfg *config.Config, store *queue.Store, logger *slog.Logger) *StallMonitor {
	window := time.Duration(cfg.Pipeline.StallWindowSeconds) * time.Second
	every := window / 4
	if every < time.Second {
		every = time.Second
	}
	return &StallMonitor{
		store:  store,
		logger: logging.NewComponentLogger(logger, "stall-monitor"),
		window: window,
		every:  every,
	}
}

// Run drives periodic sweeps until the context is cancelled.
func (s *StallMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reclaims every stalled item once and records the set for status
// reporting.
func (s *StallMonitor) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.window)
	items, err := s.store.Stalled(ctx, cutoff)
	if err != nil {
		s.logger.Warn("stall sweep failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		return
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		target, ok := stallResetTargets[item.Status]
		if !ok {
			continue
		}
		s.logger.Warn("reclaiming stalled item",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("stalled_status", string(item.Status)),
			logging.String("reset_status", string(target)),
			logging.String(logging.FieldEventType, "stall_reclaim"),
			logging.String(logging.FieldAlert, "stalled_item"),
		)
		item.Status = target
		if err := s.store.Update(ctx, item); err != nil {
			// A conflict means the worker woke up; leave the item alone.
			s.logger.Debug("stall reclaim skipped", logging.Int64(logging.FieldItemID, item.ID), logging.Error(err))
		}
	}

	s.mu.Lock()
	s.stalled = ids
	s.mu.Unlock()
}

// StalledItems returns the item IDs flagged by the most recent sweep.
func (s *StallMonitor) StalledItems() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]int64, len(s.stalled))
	copy(cp, s.stalled)
	return cp
}
