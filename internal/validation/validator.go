package validation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"spool/internal/artifactstore"
	"spool/internal/config"
	"spool/internal/queue"
	"spool/internal/services"
)

// Verdict classifies the health of one artifact.
type Verdict string

const (
	VerdictOK                 Verdict = "ok"
	VerdictMissing            Verdict = "missing"
	VerdictTruncated          Verdict = "truncated"
	VerdictUnreadable         Verdict = "unreadable"
	VerdictMismatchedDuration Verdict = "mismatched-duration"
)

// Failing reports whether a verdict requires repair-policy consultation.
func (v Verdict) Failing() bool {
	return v != VerdictOK
}

// Validator inspects artifacts against their declared expected state. It is a
// pure function of current artifact state: no side effects, safe to call
// repeatedly and concurrently across items.
type Validator struct {
	store             *artifactstore.Store
	minVideoBytes     int64
	minAudioBytes     int64
	durationTolerance float64
}

// New constructs a Validator with the configured thresholds.
func New(cfg *config.Config, store *artifactstore.Store) *Validator {
	return &Validator{
		store:             store,
		minVideoBytes:     cfg.Pipeline.MinVideoBytes,
		minAudioBytes:     cfg.Pipeline.MinAudioBytes,
		durationTolerance: cfg.Pipeline.DurationTolerance,
	}
}

// Validate returns the health verdict for one of an item's artifacts. The
// returned error is reserved for store I/O failure, which must never be
// mistaken for content corruption.
func (v *Validator) Validate(ctx context.Context, item *queue.Item, kind queue.ArtifactKind) (Verdict, error) {
	path := item.ArtifactPath(kind)
	if path == "" {
		found, ok := v.store.Find(item.ID, kind)
		if !ok {
			return VerdictMissing, nil
		}
		path = found
	}

	size, err := v.store.SizeOf(path)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return VerdictMissing, nil
		}
		return "", err
	}

	switch kind {
	case queue.ArtifactVideo:
		return v.validateVideo(ctx, path, size)
	case queue.ArtifactAudio:
		return v.validateAudio(ctx, path, size, item.SourceDuration)
	case queue.ArtifactTranscript:
		return validateTranscript(path, size)
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}

func (v *Validator) validateVideo(ctx context.Context, path string, size int64) (Verdict, error) {
	if size < v.minVideoBytes {
		return VerdictTruncated, nil
	}
	info, err := v.store.Probe(ctx, path)
	if err != nil {
		if errors.Is(err, artifactstore.ErrProbeUnavailable) {
			return VerdictUnreadable, nil
		}
		return "", err
	}
	if info.VideoStreams == 0 {
		return VerdictUnreadable, nil
	}
	return VerdictOK, nil
}

func (v *Validator) validateAudio(ctx context.Context, path string, size int64, sourceDuration float64) (Verdict, error) {
	if size < v.minAudioBytes {
		return VerdictTruncated, nil
	}
	info, err := v.store.Probe(ctx, path)
	if err != nil {
		if errors.Is(err, artifactstore.ErrProbeUnavailable) {
			return VerdictUnreadable, nil
		}
		return "", err
	}
	if info.AudioStreams == 0 {
		return VerdictUnreadable, nil
	}
	if sourceDuration > 0 && info.DurationSeconds > 0 {
		tolerance := v.durationTolerance
		if relative := sourceDuration * 0.01; relative > tolerance {
			tolerance = relative
		}
		delta := info.DurationSeconds - sourceDuration
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			return VerdictMismatchedDuration, nil
		}
	}
	return VerdictOK, nil
}

func validateTranscript(path string, size int64) (Verdict, error) {
	if size == 0 {
		return VerdictMissing, nil
	}
	// Whitespace-only transcripts carry no text; treat them as missing.
	if size < 512 {
		data, err := os.ReadFile(path)
		if err == nil && strings.TrimSpace(string(data)) == "" {
			return VerdictMissing, nil
		}
	}
	return VerdictOK, nil
}
