package api

import (
	"sort"
	"time"

	"spool/internal/queue"
	"spool/internal/stage"
)

// Item is the transport representation of a pipeline item.
type Item struct {
	ID              int64          `json:"id"`
	SourceRef       string         `json:"sourceRef"`
	OwnerID         string         `json:"ownerId"`
	Title           string         `json:"title,omitempty"`
	Description     string         `json:"description,omitempty"`
	ThumbnailRef    string         `json:"thumbnailRef,omitempty"`
	Status          string         `json:"status"`
	VideoFile       string         `json:"videoFile,omitempty"`
	AudioFile       string         `json:"audioFile,omitempty"`
	TranscriptFile  string         `json:"transcriptFile,omitempty"`
	RetryCounts     map[string]int `json:"retryCounts,omitempty"`
	LastError       string         `json:"lastError,omitempty"`
	CancelRequested bool           `json:"cancelRequested"`
	DurationSeconds float64        `json:"durationSeconds,omitempty"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

// FromItem converts an internal queue item into its DTO.
func FromItem(item *queue.Item) Item {
	dto := Item{
		ID:              item.ID,
		SourceRef:       item.SourceRef,
		OwnerID:         item.OwnerID,
		Title:           item.Title,
		Description:     item.Description,
		ThumbnailRef:    item.ThumbnailRef,
		Status:          string(item.Status),
		VideoFile:       item.VideoFile,
		AudioFile:       item.AudioFile,
		TranscriptFile:  item.TranscriptFile,
		LastError:       item.LastError,
		CancelRequested: item.CancelRequested,
		DurationSeconds: item.SourceDuration,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(item.RetryCounts) > 0 {
		dto.RetryCounts = make(map[string]int, len(item.RetryCounts))
		for k, v := range item.RetryCounts {
			dto.RetryCounts[string(k)] = v
		}
	}
	return dto
}

// FromItems converts a slice of queue items.
func FromItems(items []*queue.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// StageHealth mirrors a stage readiness record on the wire.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// FromStageHealth converts and orders stage health records by name.
func FromStageHealth(records []stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(records))
	for _, rec := range records {
		out = append(out, StageHealth{Name: rec.Name, Ready: rec.Ready, Detail: rec.Detail})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Totals condenses queue counts into lifecycle buckets.
type Totals struct {
	Total      int `json:"total"`
	Waiting    int `json:"waiting"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Abandoned  int `json:"abandoned"`
	Ready      int `json:"ready"`
}

// FromHealthSummary converts the store's aggregate counts.
func FromHealthSummary(summary queue.HealthSummary) Totals {
	return Totals{
		Total:      summary.Total,
		Waiting:    summary.Waiting,
		Processing: summary.Processing,
		Failed:     summary.Failed,
		Abandoned:  summary.Abandoned,
		Ready:      summary.Ready,
	}
}

// Status aggregates daemon-level pipeline state for operators.
type Status struct {
	Running      bool           `json:"running"`
	QueueStats   map[string]int `json:"queueStats"`
	Totals       Totals         `json:"totals"`
	StageHealth  []StageHealth  `json:"stageHealth"`
	StalledItems []int64        `json:"stalledItems,omitempty"`
}

// ArtifactInfo describes one stored artifact for debug queries.
type ArtifactInfo struct {
	Kind            string  `json:"kind"`
	Path            string  `json:"path"`
	SizeBytes       int64   `json:"sizeBytes"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	VideoStreams    int     `json:"videoStreams,omitempty"`
	AudioStreams    int     `json:"audioStreams,omitempty"`
	Readable        bool    `json:"readable"`
}

// DebugInfo is the full artifact-level view of one item.
type DebugInfo struct {
	Item      Item           `json:"item"`
	Folder    []string       `json:"folder"`
	Artifacts []ArtifactInfo `json:"artifacts"`
}

// MergeStats converts internal status counts to wire keys, including zero
// rows for statuses with no items so consumers see the full picture.
func MergeStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(stats))
	for _, status := range queue.AllStatuses() {
		merged[string(status)] = stats[status]
	}
	return merged
}
