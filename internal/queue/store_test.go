package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"spool/internal/queue"
	"spool/internal/testsupport"
)

func TestNewItemAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewItem(ctx, "https://youtube.com/watch?v=abc123", "user-1")
	if err != nil {
		t.Fatalf("NewItem failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusCreated {
		t.Fatalf("expected created status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourceRef != item.SourceRef || fetched.OwnerID != "user-1" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestNewItemRejectsActiveDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewItem(t, store, "https://youtube.com/watch?v=dup", "user-1")

	if _, err := store.NewItem(ctx, "https://youtube.com/watch?v=dup", "user-1"); !errors.Is(err, queue.ErrDuplicateSource) {
		t.Fatalf("expected duplicate source error, got %v", err)
	}

	// Same source under a different owner is allowed.
	if _, err := store.NewItem(ctx, "https://youtube.com/watch?v=dup", "user-2"); err != nil {
		t.Fatalf("different owner should be accepted: %v", err)
	}

	// Terminal items no longer block resubmission.
	first.Status = queue.StatusAbandoned
	testsupport.MustUpdate(t, store, first)
	if _, err := store.NewItem(ctx, "https://youtube.com/watch?v=dup", "user-1"); err != nil {
		t.Fatalf("terminal item should not block resubmission: %v", err)
	}
}

func TestUpdateDetectsVersionConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=race", "user-1")

	// Two workers read the same version.
	first, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	second, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	first.Status = queue.StatusMetadataFetching
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("first commit should succeed: %v", err)
	}

	second.Status = queue.StatusMetadataFetching
	if err := store.Update(ctx, second); !errors.Is(err, queue.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	// The loser re-reads and retries without data loss.
	reread, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID after conflict: %v", err)
	}
	if reread.Status != queue.StatusMetadataFetching {
		t.Fatalf("expected committed status preserved, got %s", reread.Status)
	}
	if reread.Version != first.Version {
		t.Fatalf("expected version %d, got %d", first.Version, reread.Version)
	}
}

func TestUpdateRoundTripsRetryCountsAndArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=rt", "user-1")

	item.Status = queue.StatusDownloaded
	item.Title = "Talk"
	item.SourceDuration = 360.5
	item.SetArtifactPath(queue.ArtifactVideo, "/items/1/video.mp4")
	item.IncrementRetry(queue.StageFetchMedia)
	item.IncrementRetry(queue.StageFetchMedia)
	testsupport.MustUpdate(t, store, item)

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.RetryCount(queue.StageFetchMedia) != 2 {
		t.Fatalf("expected retry count 2, got %d", fetched.RetryCount(queue.StageFetchMedia))
	}
	if fetched.ArtifactPath(queue.ArtifactVideo) != "/items/1/video.mp4" {
		t.Fatalf("unexpected video path: %q", fetched.ArtifactPath(queue.ArtifactVideo))
	}
	if fetched.SourceDuration != 360.5 {
		t.Fatalf("unexpected source duration: %v", fetched.SourceDuration)
	}

	fetched.ResetRetry(queue.StageFetchMedia)
	testsupport.MustUpdate(t, store, fetched)
	again, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if again.RetryCount(queue.StageFetchMedia) != 0 {
		t.Fatalf("expected retry count reset, got %d", again.RetryCount(queue.StageFetchMedia))
	}
}

func TestRequestCancelBumpsVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=cancel", "user-1")

	// A worker holds a stale copy while the cancel lands.
	stale, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	ok, err := store.RequestCancel(ctx, item.ID)
	if err != nil || !ok {
		t.Fatalf("RequestCancel: ok=%v err=%v", ok, err)
	}

	stale.Status = queue.StatusMetadataFetched
	if err := store.Update(ctx, stale); !errors.Is(err, queue.ErrVersionConflict) {
		t.Fatalf("expected stale commit to conflict after cancel, got %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !fetched.CancelRequested {
		t.Fatal("expected cancel flag set")
	}
}

func TestRequestCancelIgnoresTerminalItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=done", "user-1")
	item.Status = queue.StatusQAReady
	testsupport.MustUpdate(t, store, item)

	ok, err := store.RequestCancel(ctx, item.ID)
	if err != nil {
		t.Fatalf("RequestCancel: %v", err)
	}
	if ok {
		t.Fatal("expected terminal item to be ignored")
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewItem(t, store, "https://youtube.com/watch?v=a", "user-1")
	testsupport.NewItem(t, store, "https://youtube.com/watch?v=b", "user-1")

	next, err := store.NextForStatuses(ctx, queue.StatusCreated)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest item %d, got %#v", first.ID, next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusTranscribing)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no item, got %#v", none)
	}
}

func TestStalledReportsOldProcessingItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewItem(t, store, "https://youtube.com/watch?v=stall", "user-1")
	item.Status = queue.StatusDownloading
	testsupport.MustUpdate(t, store, item)

	// Cutoff in the future captures the item; cutoff in the past does not.
	stalled, err := store.Stalled(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Stalled: %v", err)
	}
	if len(stalled) != 1 || stalled[0].ID != item.ID {
		t.Fatalf("expected stalled item, got %#v", stalled)
	}

	recent, err := store.Stalled(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Stalled: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no stalled items, got %d", len(recent))
	}
}

func TestHealthSummarizesStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	refs := []struct {
		ref    string
		status queue.Status
	}{
		{"https://youtube.com/watch?v=h1", queue.StatusCreated},
		{"https://youtube.com/watch?v=h2", queue.StatusDownloading},
		{"https://youtube.com/watch?v=h3", queue.StatusFailed},
		{"https://youtube.com/watch?v=h4", queue.StatusQAReady},
	}
	for _, entry := range refs {
		item := testsupport.NewItem(t, store, entry.ref, "user-1")
		if entry.status != queue.StatusCreated {
			item.Status = entry.status
			testsupport.MustUpdate(t, store, item)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 4 || health.Waiting != 1 || health.Processing != 1 || health.Failed != 1 || health.Ready != 1 {
		t.Fatalf("unexpected summary: %#v", health)
	}
}
