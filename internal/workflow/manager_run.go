package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"spool/internal/logging"
	"spool/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.lanes) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	total := 0
	for _, lane := range m.lanes {
		lane.logger = logging.NewComponentLogger(m.logger, "workflow").With(
			logging.String(logging.FieldLane, string(lane.kind)),
		)
		total += lane.workers
	}
	m.wg.Add(total + 1)
	m.mu.Unlock()

	for _, lane := range m.lanes {
		for i := 0; i < lane.workers; i++ {
			go m.runWorker(runCtx, lane, i)
		}
	}
	go func() {
		defer m.wg.Done()
		m.stall.Run(runCtx)
	}()

	return nil
}

// Stop terminates background processing and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, lane *laneState, index int) {
	defer m.wg.Done()

	logger := lane.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.Int("worker", index))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.store.NextForStatuses(ctx, lane.statusOrder...)
		if err != nil {
			m.handleNextItemError(ctx, logger, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, lane, logger, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, queue.ErrVersionConflict) {
				// Another worker claimed the item first; poll again.
				continue
			}
		}
	}
}

func (m *Manager) handleNextItemError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logger.Error("failed to fetch next queue item",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

// commitStatus persists a status transition, enforcing the machine's edges.
func (m *Manager) commitStatus(ctx context.Context, item *queue.Item, to queue.Status) error {
	if !CanTransition(item.Status, to) {
		return fmt.Errorf("illegal transition %s -> %s for item %d", item.Status, to, item.ID)
	}
	item.Status = to
	return m.store.Update(ctx, item)
}
