package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const itemColumns = "id, source_ref, owner_id, title, description, thumbnail_ref, status, video_file, audio_file, transcript_file, retry_counts, last_error, cancel_requested, source_duration, version, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		sourceRef       string
		ownerID         string
		title           sql.NullString
		description     sql.NullString
		thumbnailRef    sql.NullString
		statusStr       string
		videoFile       sql.NullString
		audioFile       sql.NullString
		transcriptFile  sql.NullString
		retryCountsRaw  sql.NullString
		lastError       sql.NullString
		cancelRequested sql.NullInt64
		sourceDuration  sql.NullFloat64
		version         int64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceRef,
		&ownerID,
		&title,
		&description,
		&thumbnailRef,
		&statusStr,
		&videoFile,
		&audioFile,
		&transcriptFile,
		&retryCountsRaw,
		&lastError,
		&cancelRequested,
		&sourceDuration,
		&version,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	retryCounts, err := unmarshalRetryCounts(retryCountsRaw.String)
	if err != nil {
		return nil, fmt.Errorf("decode retry counts for item %d: %w", id, err)
	}

	item := &Item{
		ID:              id,
		SourceRef:       sourceRef,
		OwnerID:         ownerID,
		Title:           title.String,
		Description:     description.String,
		ThumbnailRef:    thumbnailRef.String,
		Status:          Status(statusStr),
		VideoFile:       videoFile.String,
		AudioFile:       audioFile.String,
		TranscriptFile:  transcriptFile.String,
		RetryCounts:     retryCounts,
		LastError:       lastError.String,
		CancelRequested: cancelRequested.Int64 != 0,
		SourceDuration:  sourceDuration.Float64,
		Version:         version,
		CreatedAt:       parseTimestamp(createdRaw.String),
		UpdatedAt:       parseTimestamp(updatedRaw.String),
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func marshalRetryCounts(counts map[Stage]int) (string, error) {
	if len(counts) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return "", fmt.Errorf("encode retry counts: %w", err)
	}
	return string(data), nil
}

func unmarshalRetryCounts(raw string) (map[Stage]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	counts := make(map[Stage]int)
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
