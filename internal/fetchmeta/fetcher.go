package fetchmeta

import (
	"context"
	"strings"

	"log/slog"

	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/services/ytdlp"
	"spool/internal/stage"
)

// Fetcher resolves source metadata before any media is downloaded.
type Fetcher struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client ytdlp.Fetcher
}

// New constructs the metadata handler using default dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	client, err := ytdlp.New(cfg.Tools.YtDlp)
	if err != nil {
		logger.Warn("yt-dlp client unavailable", logging.Error(err))
	}
	return NewWithClient(cfg, store, logger, client)
}

// NewWithClient allows injecting the fetch client (used in tests).
func NewWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, client ytdlp.Fetcher) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "fetchmeta"))
	}
	return &Fetcher{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	item.LastError = ""
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("starting metadata fetch", logging.String("source_ref", strings.TrimSpace(item.SourceRef)))
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	if f.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"fetchmeta",
			"resolve client",
			"Metadata tool unavailable; check the yt_dlp setting",
			nil,
		)
	}

	var meta ytdlp.Metadata
	err := services.Retry(ctx, services.DefaultRetry, func() error {
		fetched, err := f.client.FetchMetadata(ctx, item.SourceRef)
		if err != nil {
			return classifyFetchError(err)
		}
		meta = fetched
		return nil
	})
	if err != nil {
		return err
	}

	applyMetadata(item, meta)
	logger.Info(
		"metadata fetched",
		logging.String("title", item.Title),
		logging.Float64("duration_seconds", item.SourceDuration),
	)
	return nil
}

func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckTool("fetchmeta", f.cfg.Tools.YtDlp)
}

func classifyFetchError(err error) error {
	switch {
	case ytdlp.IsUnsupportedSource(err):
		return services.Wrap(
			services.ErrInput,
			"fetchmeta",
			"fetch metadata",
			"Source reference rejected by the fetch tool; verify the URL",
			err,
		)
	case ytdlp.IsTransientFailure(err):
		return services.Wrap(
			services.ErrTransient,
			"fetchmeta",
			"fetch metadata",
			"Metadata fetch hit a transient network failure",
			err,
		)
	default:
		return services.Wrap(
			services.ErrExternalTool,
			"fetchmeta",
			"fetch metadata",
			"Metadata fetch failed; the source may be temporarily unreachable",
			err,
		)
	}
}
