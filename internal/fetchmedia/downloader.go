package fetchmedia

import (
	"context"

	"log/slog"

	"spool/internal/artifactstore"
	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/services/ytdlp"
	"spool/internal/stage"
)

// Downloader transfers source media into the item's artifact namespace.
type Downloader struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	artifacts *artifactstore.Store
	client    ytdlp.Fetcher
}

// New constructs the download handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store) *Downloader {
	client, err := ytdlp.New(cfg.Tools.YtDlp)
	if err != nil {
		logger.Warn("yt-dlp client unavailable", logging.Error(err))
	}
	return NewWithClient(cfg, store, logger, artifacts, client)
}

// NewWithClient allows injecting the fetch client (used in tests).
func NewWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, artifacts *artifactstore.Store, client ytdlp.Fetcher) *Downloader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "fetchmedia"))
	}
	return &Downloader{store: store, cfg: cfg, logger: stageLogger, artifacts: artifacts, client: client}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	item.LastError = ""
	if _, err := d.artifacts.EnsureItemDir(item.ID); err != nil {
		return services.Wrap(
			services.ErrStoreIO,
			"fetchmedia",
			"ensure item dir",
			"Failed to create the item's artifact folder; check work_dir permissions",
			err,
		)
	}
	return nil
}

// Execute downloads the media to the item's canonical video path. A rerun
// after a repair overwrites the previous copy, so a partial file never
// survives into validation as a leftover.
func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	if d.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetchmedia",
			"resolve client",
			"Download tool unavailable; check the yt_dlp setting",
			nil,
		)
	}

	dest := d.artifacts.Path(item.ID, queue.ArtifactVideo)
	logger.Info("starting media download", logging.String("destination", dest))

	err := services.Retry(ctx, services.DefaultRetry, func() error {
		if err := d.client.Download(ctx, item.SourceRef, dest); err != nil {
			return classifyDownloadError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	item.SetArtifactPath(queue.ArtifactVideo, dest)
	size, err := d.artifacts.SizeOf(dest)
	if err != nil {
		return services.Wrap(
			services.ErrStoreIO,
			"fetchmedia",
			"stat download",
			"Downloaded file is not readable in the artifact store",
			err,
		)
	}
	logger.Info("media downloaded", logging.Int64("size_bytes", size))
	return nil
}

func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckTool("fetchmedia", d.cfg.Tools.YtDlp)
}

func classifyDownloadError(err error) error {
	switch {
	case ytdlp.IsUnsupportedSource(err):
		return services.Wrap(
			services.ErrInput,
			"fetchmedia",
			"download",
			"Source rejected by the download tool; verify the URL",
			err,
		)
	case ytdlp.IsTransientFailure(err):
		return services.Wrap(
			services.ErrTransient,
			"fetchmedia",
			"download",
			"Media download hit a transient network failure",
			err,
		)
	default:
		return services.Wrap(
			services.ErrExternalTool,
			"fetchmedia",
			"download",
			"Media download failed; the source may be temporarily unreachable",
			err,
		)
	}
}
