package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"spool/internal/artifactstore"
	"spool/internal/audioextract"
	"spool/internal/config"
	"spool/internal/fetchmedia"
	"spool/internal/fetchmeta"
	"spool/internal/handoff"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/transcribe"
	"spool/internal/validation"
)

// Manager coordinates queue processing across the fetch and process lanes.
// Fetch stages are bandwidth bound and extraction stages are CPU bound, so
// each lane carries its own worker ceiling.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	validator    *validation.Validator
	ready        handoff.Handler
	pollInterval time.Duration

	stall *StallMonitor
	lanes []*laneState

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager with the default stage handlers.
func NewManager(cfg *config.Config, store *queue.Store, artifacts *artifactstore.Store, logger *slog.Logger, ready handoff.Handler) *Manager {
	validator := validation.New(cfg, artifacts)
	set := StageSet{
		FetchMetadata: fetchmeta.New(cfg, store, logger),
		FetchMedia:    fetchmedia.New(cfg, store, logger, artifacts),
		Validate:      validation.NewHandler(cfg, logger, validator),
		ExtractAudio:  audioextract.New(cfg, store, logger, artifacts),
		Transcribe:    transcribe.New(cfg, store, logger, artifacts),
	}
	return NewManagerWithStages(cfg, store, logger, validator, ready, set)
}

// NewManagerWithStages allows injecting stage handlers (used in tests).
func NewManagerWithStages(cfg *config.Config, store *queue.Store, logger *slog.Logger, validator *validation.Validator, ready handoff.Handler, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if ready == nil {
		ready = handoff.NewLogging(logger)
	}

	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		validator:    validator,
		ready:        ready,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
	}
	m.stall = NewStallMonitor(cfg, store, logger)

	fetch := &laneState{
		kind:    laneFetch,
		workers: cfg.Pipeline.FetchConcurrency,
		stages: []pipelineStage{
			{
				name:             "fetchmeta",
				handler:          set.FetchMetadata,
				startStatus:      queue.StatusCreated,
				processingStatus: queue.StatusMetadataFetching,
				doneStatus:       queue.StatusMetadataFetched,
				retryKey:         queue.StageFetchMetadata,
				repairStatus:     queue.StatusCreated,
			},
			{
				name:             "fetchmedia",
				handler:          set.FetchMedia,
				startStatus:      queue.StatusMetadataFetched,
				processingStatus: queue.StatusDownloading,
				doneStatus:       queue.StatusDownloaded,
				retryKey:         queue.StageFetchMedia,
				repairStatus:     queue.StatusMetadataFetched,
			},
		},
	}
	process := &laneState{
		kind:    laneProcess,
		workers: cfg.Pipeline.ExtractConcurrency,
		stages: []pipelineStage{
			{
				name:             "validate",
				handler:          set.Validate,
				startStatus:      queue.StatusDownloaded,
				processingStatus: queue.StatusValidating,
				doneStatus:       queue.StatusValidated,
				retryKey:         queue.StageFetchMedia,
				repairStatus:     queue.StatusMetadataFetched,
			},
			{
				name:             "audioextract",
				handler:          set.ExtractAudio,
				startStatus:      queue.StatusValidated,
				processingStatus: queue.StatusAudioExtracting,
				doneStatus:       queue.StatusAudioExtracted,
				retryKey:         queue.StageExtractAudio,
				repairStatus:     queue.StatusValidated,
				verify:           queue.ArtifactAudio,
			},
			{
				name:             "transcribe",
				handler:          set.Transcribe,
				startStatus:      queue.StatusAudioExtracted,
				processingStatus: queue.StatusTranscribing,
				doneStatus:       queue.StatusQAReady,
				retryKey:         queue.StageTranscribe,
				repairStatus:     queue.StatusAudioExtracted,
				verify:           queue.ArtifactTranscript,
			},
		},
	}
	fetch.finalize()
	process.finalize()
	m.lanes = []*laneState{fetch, process}
	return m
}

// LastError reports the most recent orchestration failure, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
