package validation

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/stage"
)

// VerdictError carries a failing verdict through a stage error chain so the
// repair policy can see what the validator concluded.
type VerdictError struct {
	Kind    queue.ArtifactKind
	Verdict Verdict
}

func (e *VerdictError) Error() string {
	return fmt.Sprintf("%s artifact %s", e.Kind, e.Verdict)
}

// WrapVerdict builds the stage error for a failing verdict.
func WrapVerdict(stageName string, kind queue.ArtifactKind, verdict Verdict) error {
	return services.Wrap(
		services.ErrValidation,
		stageName,
		"validate "+string(kind),
		fmt.Sprintf("Artifact check failed: %s is %s", kind, verdict),
		&VerdictError{Kind: kind, Verdict: verdict},
	)
}

// VerdictFromError extracts the verdict embedded in a stage error, if any.
func VerdictFromError(err error) (Verdict, bool) {
	var ve *VerdictError
	if errors.As(err, &ve) {
		return ve.Verdict, true
	}
	return "", false
}

// Handler is the pipeline stage that checks the downloaded video before any
// processing effort is spent on it.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	validator *Validator
}

// NewHandler constructs the validating stage.
func NewHandler(cfg *config.Config, logger *slog.Logger, validator *Validator) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "validate"),
		validator: validator,
	}
}

func (h *Handler) Prepare(ctx context.Context, item *queue.Item) error {
	item.LastError = ""
	return nil
}

func (h *Handler) Execute(ctx context.Context, item *queue.Item) error {
	verdict, err := h.validator.Validate(ctx, item, queue.ArtifactVideo)
	if err != nil {
		return services.Wrap(
			services.ErrStoreIO,
			"validate",
			"inspect video",
			"Artifact store unavailable while checking the video",
			err,
		)
	}
	logging.WithContext(ctx, h.logger).Info("video checked", logging.String("verdict", string(verdict)))
	if verdict.Failing() {
		return WrapVerdict("validate", queue.ArtifactVideo, verdict)
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckTool("validate", h.cfg.Tools.FFprobe)
}
