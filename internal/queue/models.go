package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline item.
type Status string

const (
	StatusCreated          Status = "created"
	StatusMetadataFetching Status = "metadata_fetching"
	StatusMetadataFetched  Status = "metadata_fetched"
	StatusDownloading      Status = "downloading"
	StatusDownloaded       Status = "downloaded"
	StatusValidating       Status = "validating"
	StatusValidated        Status = "validated"
	StatusAudioExtracting  Status = "audio_extracting"
	StatusAudioExtracted   Status = "audio_extracted"
	StatusTranscribing     Status = "transcribing"
	StatusQAReady          Status = "qa_ready"
	StatusRepairing        Status = "repairing"
	StatusFailed           Status = "failed"
	StatusAbandoned        Status = "abandoned"
)

// Stage identifies one artifact-producing pipeline phase. Retry counters are
// keyed by stage.
type Stage string

const (
	StageFetchMetadata Stage = "fetch-metadata"
	StageFetchMedia    Stage = "fetch-media"
	StageExtractAudio  Stage = "extract-audio"
	StageTranscribe    Stage = "transcribe"
)

// ArtifactKind names the stored byproducts of the pipeline.
type ArtifactKind string

const (
	ArtifactVideo      ArtifactKind = "video"
	ArtifactAudio      ArtifactKind = "audio"
	ArtifactTranscript ArtifactKind = "transcript"
)

var allStatuses = []Status{
	StatusCreated,
	StatusMetadataFetching,
	StatusMetadataFetched,
	StatusDownloading,
	StatusDownloaded,
	StatusValidating,
	StatusValidated,
	StatusAudioExtracting,
	StatusAudioExtracted,
	StatusTranscribing,
	StatusQAReady,
	StatusRepairing,
	StatusFailed,
	StatusAbandoned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusMetadataFetching: {},
	StatusDownloading:      {},
	StatusValidating:       {},
	StatusAudioExtracting:  {},
	StatusTranscribing:     {},
	StatusRepairing:        {},
}

var terminalStatuses = map[Status]struct{}{
	StatusQAReady:   {},
	StatusFailed:    {},
	StatusAbandoned: {},
}

// Item represents a pipeline item persisted in SQLite.
type Item struct {
	ID              int64
	SourceRef       string
	OwnerID         string
	Title           string
	Description     string
	ThumbnailRef    string
	Status          Status
	VideoFile       string
	AudioFile       string
	TranscriptFile  string
	RetryCounts     map[Stage]int
	LastError       string
	CancelRequested bool
	SourceDuration  float64
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i *Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status ends the item lifecycle.
func IsTerminal(status Status) bool {
	_, ok := terminalStatuses[status]
	return ok
}

// ProcessingStatuses returns the statuses that indicate in-flight work.
func ProcessingStatuses() []Status {
	out := make([]Status, 0, len(processingStatuses))
	for _, status := range allStatuses {
		if IsProcessingStatus(status) {
			out = append(out, status)
		}
	}
	return out
}

// RetryCount returns the repair attempts recorded for a stage.
func (i *Item) RetryCount(stage Stage) int {
	if i.RetryCounts == nil {
		return 0
	}
	return i.RetryCounts[stage]
}

// IncrementRetry bumps the repair counter for a stage.
func (i *Item) IncrementRetry(stage Stage) {
	if i.RetryCounts == nil {
		i.RetryCounts = make(map[Stage]int, 1)
	}
	i.RetryCounts[stage]++
}

// ResetRetry clears the repair counter for a stage. Counters reset only when
// the stage succeeds.
func (i *Item) ResetRetry(stage Stage) {
	if i.RetryCounts == nil {
		return
	}
	delete(i.RetryCounts, stage)
}

// ArtifactPath returns the recorded location for an artifact kind, if any.
func (i *Item) ArtifactPath(kind ArtifactKind) string {
	switch kind {
	case ArtifactVideo:
		return i.VideoFile
	case ArtifactAudio:
		return i.AudioFile
	case ArtifactTranscript:
		return i.TranscriptFile
	default:
		return ""
	}
}

// SetArtifactPath records the location of a produced artifact. Only the stage
// that produces a kind may call this.
func (i *Item) SetArtifactPath(kind ArtifactKind, path string) {
	switch kind {
	case ArtifactVideo:
		i.VideoFile = path
	case ArtifactAudio:
		i.AudioFile = path
	case ArtifactTranscript:
		i.TranscriptFile = path
	}
}

// ArtifactPaths returns the populated artifact locations keyed by kind.
func (i *Item) ArtifactPaths() map[ArtifactKind]string {
	out := make(map[ArtifactKind]string, 3)
	if i.VideoFile != "" {
		out[ArtifactVideo] = i.VideoFile
	}
	if i.AudioFile != "" {
		out[ArtifactAudio] = i.AudioFile
	}
	if i.TranscriptFile != "" {
		out[ArtifactTranscript] = i.TranscriptFile
	}
	return out
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Waiting    int
	Processing int
	Failed     int
	Abandoned  int
	Ready      int
}
