package api

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"log/slog"

	"spool/internal/artifactstore"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/stage"
)

// WorkflowStatusProvider exposes the orchestrator state the status query needs.
type WorkflowStatusProvider interface {
	Health(ctx context.Context) []stage.Health
	StalledItems() []int64
}

// Service exposes intake, cancellation, and read-only queries over the queue.
type Service struct {
	store     *queue.Store
	artifacts *artifactstore.Store
	workflow  WorkflowStatusProvider
	logger    *slog.Logger
}

// NewService constructs the API service. The workflow provider may be nil
// when only queue queries are served.
func NewService(store *queue.Store, artifacts *artifactstore.Store, workflow WorkflowStatusProvider, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		artifacts: artifacts,
		workflow:  workflow,
		logger:    logging.NewComponentLogger(logger, "api"),
	}
}

// Submit registers a new source for processing. A source already active for
// the same owner is rejected with queue.ErrDuplicateSource.
func (s *Service) Submit(ctx context.Context, sourceRef, ownerID string) (Item, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if err := checkSourceRef(sourceRef); err != nil {
		return Item{}, err
	}
	item, err := s.store.NewItem(ctx, sourceRef, strings.TrimSpace(ownerID))
	if err != nil {
		return Item{}, err
	}
	s.logger.Info("item submitted",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source_ref", sourceRef),
		logging.String(logging.FieldEventType, "item_submitted"),
	)
	return FromItem(item), nil
}

// Describe fetches a single item, or services.ErrNotFound.
func (s *Service) Describe(ctx context.Context, id int64) (Item, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if item == nil {
		return Item{}, services.Wrap(services.ErrNotFound, "api", "describe item", "No such item", nil)
	}
	return FromItem(item), nil
}

// List returns items, optionally filtered by owner.
func (s *Service) List(ctx context.Context, ownerID string) ([]Item, error) {
	ownerID = strings.TrimSpace(ownerID)
	var (
		items []*queue.Item
		err   error
	)
	if ownerID != "" {
		items, err = s.store.ListByOwner(ctx, ownerID)
	} else {
		items, err = s.store.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return FromItems(items), nil
}

// Cancel flags an item for cancellation at the next transition boundary.
// It reports false when the item is already terminal or absent.
func (s *Service) Cancel(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.RequestCancel(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("cancellation requested",
			logging.Int64(logging.FieldItemID, id),
			logging.String(logging.FieldEventType, "cancel_requested"),
		)
	}
	return ok, nil
}

// Remove deletes a terminal or waiting item together with its artifact
// folder. Items currently being processed are refused; cancel them first.
func (s *Service) Remove(ctx context.Context, id int64) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return services.Wrap(services.ErrNotFound, "api", "remove item", "No such item", nil)
	}
	if queue.IsProcessingStatus(item.Status) {
		return services.Wrap(services.ErrConflict, "api", "remove item", "Item is being processed; cancel it first", nil)
	}
	if _, err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.artifacts.RemoveItemDir(id); err != nil {
		s.logger.Warn("artifact folder cleanup failed", logging.Int64(logging.FieldItemID, id), logging.Error(err))
	}
	s.logger.Info("item removed",
		logging.Int64(logging.FieldItemID, id),
		logging.String(logging.FieldEventType, "item_removed"),
	)
	return nil
}

// Status aggregates queue counts and stage health.
func (s *Service) Status(ctx context.Context) (Status, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return Status{}, err
	}
	summary, err := s.store.Health(ctx)
	if err != nil {
		return Status{}, err
	}
	out := Status{QueueStats: MergeStats(stats), Totals: FromHealthSummary(summary)}
	if s.workflow != nil {
		out.Running = true
		out.StageHealth = FromStageHealth(s.workflow.Health(ctx))
		out.StalledItems = s.workflow.StalledItems()
	}
	return out, nil
}

// Debug reports the artifact-level state of one item: folder contents plus a
// fresh size and probe for every recorded artifact.
func (s *Service) Debug(ctx context.Context, id int64) (DebugInfo, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return DebugInfo{}, err
	}
	if item == nil {
		return DebugInfo{}, services.Wrap(services.ErrNotFound, "api", "debug item", "No such item", nil)
	}

	info := DebugInfo{Item: FromItem(item)}
	folder, err := s.artifacts.ListFolder(item.ID)
	if err != nil {
		return DebugInfo{}, err
	}
	info.Folder = folder

	for kind, path := range item.ArtifactPaths() {
		artifact := ArtifactInfo{Kind: string(kind), Path: path}
		size, err := s.artifacts.SizeOf(path)
		if err == nil {
			artifact.SizeBytes = size
			if kind != queue.ArtifactTranscript {
				if probe, perr := s.artifacts.Probe(ctx, path); perr == nil {
					artifact.DurationSeconds = probe.DurationSeconds
					artifact.VideoStreams = probe.VideoStreams
					artifact.AudioStreams = probe.AudioStreams
					artifact.Readable = probe.Readable
				}
			} else {
				artifact.Readable = true
			}
		}
		info.Artifacts = append(info.Artifacts, artifact)
	}
	return info, nil
}

func checkSourceRef(sourceRef string) error {
	if sourceRef == "" {
		return services.Wrap(services.ErrInput, "api", "submit", "Source reference must not be empty", nil)
	}
	parsed, err := url.Parse(sourceRef)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Wrap(services.ErrInput, "api", "submit", "Source reference must be an http(s) URL", err)
	}
	return nil
}

// IsNotFound reports whether an API error denotes a missing item.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
