package queue

import "testing"

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Downloading "); !ok || status != StatusDownloading {
		t.Fatalf("unexpected parse result: %s %v", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestStatusClassification(t *testing.T) {
	for _, status := range []Status{StatusQAReady, StatusFailed, StatusAbandoned} {
		if !IsTerminal(status) {
			t.Fatalf("expected %s terminal", status)
		}
		if IsProcessingStatus(status) {
			t.Fatalf("did not expect %s processing", status)
		}
	}
	for _, status := range []Status{StatusMetadataFetching, StatusDownloading, StatusValidating, StatusAudioExtracting, StatusTranscribing, StatusRepairing} {
		if !IsProcessingStatus(status) {
			t.Fatalf("expected %s processing", status)
		}
		if IsTerminal(status) {
			t.Fatalf("did not expect %s terminal", status)
		}
	}
}

func TestRetryCounters(t *testing.T) {
	item := &Item{}
	if item.RetryCount(StageFetchMedia) != 0 {
		t.Fatal("expected zero retries initially")
	}
	item.IncrementRetry(StageFetchMedia)
	item.IncrementRetry(StageFetchMedia)
	item.IncrementRetry(StageTranscribe)
	if item.RetryCount(StageFetchMedia) != 2 || item.RetryCount(StageTranscribe) != 1 {
		t.Fatalf("unexpected counts: %#v", item.RetryCounts)
	}
	item.ResetRetry(StageFetchMedia)
	if item.RetryCount(StageFetchMedia) != 0 {
		t.Fatal("expected fetch-media counter reset")
	}
	if item.RetryCount(StageTranscribe) != 1 {
		t.Fatal("expected transcribe counter untouched")
	}
}

func TestArtifactPaths(t *testing.T) {
	item := &Item{}
	item.SetArtifactPath(ArtifactVideo, "/v")
	item.SetArtifactPath(ArtifactTranscript, "/t")
	paths := item.ArtifactPaths()
	if len(paths) != 2 || paths[ArtifactVideo] != "/v" || paths[ArtifactTranscript] != "/t" {
		t.Fatalf("unexpected paths: %#v", paths)
	}
}
