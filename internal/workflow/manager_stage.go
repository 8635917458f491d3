package workflow

import (
	"context"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/repair"
	"spool/internal/services"
	"spool/internal/validation"
)

func (m *Manager) processItem(ctx context.Context, lane *laneState, laneLogger *slog.Logger, item *queue.Item) error {
	stg, ok := lane.stageForStatus(item.Status)
	if !ok {
		laneLogger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.waitForItemOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(
		services.WithLane(
			services.WithStage(
				services.WithItemID(ctx, item.ID),
				stg.name,
			),
			string(lane.kind),
		),
		requestID,
	)
	stageLogger := logging.WithContext(stageCtx, laneLogger)

	if item.CancelRequested {
		return m.finalizeCancel(stageCtx, stageLogger, stg, item)
	}

	// Claiming is a status commit: whichever worker's version-checked write
	// lands first owns the item, the rest observe a conflict and move on.
	item.LastError = ""
	if err := m.commitStatus(stageCtx, item, stg.processingStatus); err != nil {
		if errors.Is(err, queue.ErrVersionConflict) {
			return err
		}
		stageLogger.Error("failed to claim item", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
	)

	if stg.handler == nil {
		err := services.Wrap(services.ErrConfiguration, stg.name, "resolve handler", "Stage handler not configured", nil)
		m.resolveStageError(ctx, stageLogger, stg, item, err)
		m.setLastError(err)
		return err
	}

	if err := stg.handler.Prepare(ctx, item); err != nil {
		m.resolveStageError(ctx, stageLogger, stg, item, err)
		m.setLastError(err)
		return err
	}

	execErr := stg.handler.Execute(ctx, item)
	if execErr == nil {
		execErr = m.verifyArtifact(ctx, stg, item)
	}
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.resolveStageError(ctx, stageLogger, stg, item, execErr)
		m.setLastError(execErr)
		return execErr
	}

	item.ResetRetry(stg.retryKey)
	if err := m.commitStatus(ctx, item, stg.doneStatus); err != nil {
		if errors.Is(err, queue.ErrVersionConflict) {
			m.recoverConflict(ctx, stageLogger, item)
			return err
		}
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		m.setLastError(err)
		return err
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)

	if item.Status == queue.StatusQAReady {
		if err := m.ready.OnReady(ctx, item.ID, item.TranscriptFile); err != nil {
			stageLogger.Warn("review handoff failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "handoff_failed"),
			)
		}
	}
	return nil
}

// verifyArtifact runs the validator over the stage's product, turning a
// failing verdict into a stage error for repair routing.
func (m *Manager) verifyArtifact(ctx context.Context, stg pipelineStage, item *queue.Item) error {
	if stg.verify == "" || m.validator == nil {
		return nil
	}
	verdict, err := m.validator.Validate(ctx, item, stg.verify)
	if err != nil {
		return services.Wrap(services.ErrStoreIO, stg.name, "verify artifact",
			"Artifact store unavailable while checking stage output", err)
	}
	if verdict.Failing() {
		return validation.WrapVerdict(stg.name, stg.verify, verdict)
	}
	return nil
}

// resolveStageError routes a stage failure: store outages leave the item in
// place, retryable errors consult the repair policy, everything else fails
// the item outright.
func (m *Manager) resolveStageError(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item, stageErr error) {
	message := services.Details(stageErr).Message
	item.LastError = message

	if errors.Is(stageErr, services.ErrStoreIO) {
		stageLogger.Error("artifact store unavailable",
			logging.Error(stageErr),
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldAlert, "store_unavailable"),
		)
		// An outage says nothing about the content. Record the alert text
		// but keep the processing status; the stall monitor returns the item
		// to its stage start once the window passes.
		if err := m.store.Update(ctx, item); err != nil && !errors.Is(err, queue.ErrVersionConflict) {
			stageLogger.Warn("failed to record store alert", logging.Error(err))
		}
		return
	}

	if !services.IsRetryable(stageErr) {
		stageLogger.Error("stage failed",
			logging.Error(stageErr),
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldAlert, "stage_failure"),
		)
		m.finalizeStatus(ctx, stageLogger, item, queue.StatusFailed)
		return
	}

	if err := m.commitStatus(ctx, item, queue.StatusRepairing); err != nil {
		if errors.Is(err, queue.ErrVersionConflict) {
			m.recoverConflict(ctx, stageLogger, item)
			return
		}
		stageLogger.Error("failed to enter repair", logging.Error(err))
		return
	}

	// Tool failures leave the artifact in an unknown state; treat them like
	// an unreadable artifact unless the error carries a concrete verdict.
	verdict := validation.VerdictUnreadable
	if v, ok := validation.VerdictFromError(stageErr); ok {
		verdict = v
	}

	count := item.RetryCount(stg.retryKey)
	action := repair.Decide(verdict, count, m.cfg.Pipeline.MaxRetries)
	stageLogger.Info("repair decision",
		logging.String(logging.FieldEventType, "repair_decision"),
		logging.String("verdict", string(verdict)),
		logging.String("action", string(action)),
		logging.Int("retry_count", count),
		logging.Int("max_retries", m.cfg.Pipeline.MaxRetries),
		logging.Error(stageErr),
	)

	switch action {
	case repair.ActionReFetch:
		item.IncrementRetry(stg.retryKey)
		m.finalizeStatus(ctx, stageLogger, item, stg.repairStatus)
	default:
		m.finalizeStatus(ctx, stageLogger, item, queue.StatusAbandoned)
	}
}

func (m *Manager) finalizeCancel(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	item.LastError = "cancelled before " + stg.name
	if err := m.commitStatus(ctx, item, queue.StatusAbandoned); err != nil {
		if errors.Is(err, queue.ErrVersionConflict) {
			m.recoverConflict(ctx, stageLogger, item)
			return err
		}
		stageLogger.Error("failed to abandon cancelled item", logging.Error(err))
		return err
	}
	stageLogger.Info("item cancelled",
		logging.String(logging.FieldEventType, "item_cancelled"),
	)
	return nil
}

func (m *Manager) finalizeStatus(ctx context.Context, stageLogger *slog.Logger, item *queue.Item, to queue.Status) {
	if err := m.commitStatus(ctx, item, to); err != nil {
		if errors.Is(err, queue.ErrVersionConflict) {
			m.recoverConflict(ctx, stageLogger, item)
			return
		}
		stageLogger.Error("failed to persist item status",
			logging.Error(err),
			logging.String("target_status", string(to)),
		)
	}
}

// recoverConflict handles a lost optimistic commit: the worker re-reads the
// item and honors a cancellation request, otherwise it drops its write since
// whoever bumped the version owns the current state.
func (m *Manager) recoverConflict(ctx context.Context, stageLogger *slog.Logger, item *queue.Item) {
	fresh, err := m.store.GetByID(ctx, item.ID)
	if err != nil {
		stageLogger.Warn("conflict recovery read failed", logging.Error(err))
		return
	}
	if fresh == nil {
		return
	}
	if fresh.CancelRequested && !queue.IsTerminal(fresh.Status) {
		fresh.LastError = "cancelled"
		if err := m.commitStatus(ctx, fresh, queue.StatusAbandoned); err != nil {
			stageLogger.Warn("failed to abandon cancelled item after conflict", logging.Error(err))
			return
		}
		stageLogger.Info("item cancelled",
			logging.String(logging.FieldEventType, "item_cancelled"),
		)
		return
	}
	stageLogger.Debug("dropped stale commit after version conflict",
		logging.String("current_status", string(fresh.Status)),
	)
}
