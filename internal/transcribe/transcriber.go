package transcribe

import (
	"context"

	"log/slog"

	"spool/internal/artifactstore"
	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/services/whisper"
	"spool/internal/stage"
)

// Transcriber turns the extracted audio into a plain text transcript.
type Transcriber struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	artifacts *artifactstore.Store
	client    whisper.Transcriber
}

// New constructs the transcription handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store) *Transcriber {
	client, err := whisper.New(cfg.Tools.Whisper, cfg.Tools.WhisperModel)
	if err != nil {
		logger.Warn("whisper client unavailable", logging.Error(err))
	}
	return NewWithClient(cfg, store, logger, artifacts, client)
}

// NewWithClient allows injecting the whisper client (used in tests).
func NewWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store, client whisper.Transcriber) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transcribe"))
	}
	return &Transcriber{store: store, cfg: cfg, logger: stageLogger, artifacts: artifacts, client: client}
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	item.LastError = ""
	if item.AudioFile == "" {
		return services.Wrap(
			services.ErrValidation,
			"transcribe",
			"locate audio",
			"No audio artifact recorded for this item; rerun extraction",
			nil,
		)
	}
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	if t.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"transcribe",
			"resolve client",
			"Transcription tool unavailable; check the whisper setting",
			nil,
		)
	}

	dest := t.artifacts.Path(item.ID, queue.ArtifactTranscript)
	logger.Info("starting transcription", logging.String("destination", dest))

	if err := t.client.Transcribe(ctx, item.AudioFile, dest); err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"transcribe",
			"transcribe audio",
			"Transcription failed; check the whisper installation and model",
			err,
		)
	}

	item.SetArtifactPath(queue.ArtifactTranscript, dest)
	logger.Info("transcript written", logging.String("transcript_file", dest))
	return nil
}

func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckTool("transcribe", t.cfg.Tools.Whisper)
}
