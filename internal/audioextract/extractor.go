package audioextract

import (
	"context"

	"log/slog"

	"spool/internal/artifactstore"
	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
	"spool/internal/stage"
)

// Extractor produces the transcription-ready audio track from the video.
type Extractor struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	artifacts *artifactstore.Store
	client    ffmpeg.Extractor
}

// New constructs the extraction handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store) *Extractor {
	client, err := ffmpeg.New(cfg.Tools.FFmpeg)
	if err != nil {
		logger.Warn("ffmpeg client unavailable", logging.Error(err))
	}
	return NewWithClient(cfg, store, logger, artifacts, client)
}

// NewWithClient allows injecting the ffmpeg client (used in tests).
func NewWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store, client ffmpeg.Extractor) *Extractor {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "audioextract"))
	}
	return &Extractor{store: store, cfg: cfg, logger: stageLogger, artifacts: artifacts, client: client}
}

func (e *Extractor) Prepare(ctx context.Context, item *queue.Item) error {
	item.LastError = ""
	if item.VideoFile == "" {
		return services.Wrap(
			services.ErrValidation,
			"audioextract",
			"locate video",
			"No video artifact recorded for this item; re-fetch the media",
			nil,
		)
	}
	return nil
}

func (e *Extractor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	if e.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"audioextract",
			"resolve client",
			"Extraction tool unavailable; check the ffmpeg setting",
			nil,
		)
	}

	dest := e.artifacts.Path(item.ID, queue.ArtifactAudio)
	logger.Info("starting audio extraction", logging.String("destination", dest))

	if err := e.client.ExtractAudio(ctx, item.VideoFile, dest); err != nil {
		return services.Wrap(
			services.ErrExternalTool,
			"audioextract",
			"extract audio",
			"Audio extraction failed; the video may be corrupt",
			err,
		)
	}

	item.SetArtifactPath(queue.ArtifactAudio, dest)
	logger.Info("audio extracted", logging.String("audio_file", dest))
	return nil
}

func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckTool("audioextract", e.cfg.Tools.FFmpeg)
}
