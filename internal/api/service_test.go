package api

import (
	"context"
	"errors"
	"testing"

	"spool/internal/artifactstore"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/testsupport"
)

func newService(t *testing.T) (*Service, *queue.Store, *artifactstore.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	artifacts := artifactstore.New(cfg)
	return NewService(store, artifacts, nil, logging.NewNop()), store, artifacts
}

func TestSubmitAndDescribe(t *testing.T) {
	svc, _, _ := newService(t)

	item, err := svc.Submit(context.Background(), "https://example.com/watch?v=abc", "owner-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if item.Status != string(queue.StatusCreated) {
		t.Fatalf("status = %q", item.Status)
	}

	got, err := svc.Describe(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if got.SourceRef != "https://example.com/watch?v=abc" || got.OwnerID != "owner-1" {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestSubmitRejectsBadReferences(t *testing.T) {
	svc, _, _ := newService(t)

	for _, ref := range []string{"", "not-a-url", "ftp://example.com/file", "https://"} {
		if _, err := svc.Submit(context.Background(), ref, "owner-1"); !errors.Is(err, services.ErrInput) {
			t.Fatalf("Submit(%q) err = %v, want input error", ref, err)
		}
	}
}

func TestSubmitRejectsDuplicateActiveSource(t *testing.T) {
	svc, _, _ := newService(t)

	if _, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1")
	if !errors.Is(err, queue.ErrDuplicateSource) {
		t.Fatalf("second submit err = %v, want duplicate source", err)
	}

	// A different owner may track the same source.
	if _, err := svc.Submit(context.Background(), "https://example.com/v", "owner-2"); err != nil {
		t.Fatalf("other owner submit: %v", err)
	}
}

func TestDescribeMissing(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Describe(context.Background(), 9999)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListFiltersByOwner(t *testing.T) {
	svc, _, _ := newService(t)
	for _, sub := range []struct{ ref, owner string }{
		{"https://example.com/a", "owner-1"},
		{"https://example.com/b", "owner-1"},
		{"https://example.com/c", "owner-2"},
	} {
		if _, err := svc.Submit(context.Background(), sub.ref, sub.owner); err != nil {
			t.Fatalf("submit %s: %v", sub.ref, err)
		}
	}

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}

	owned, err := svc.List(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("list owner: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("owner-1 items = %d", len(owned))
	}
}

func TestCancelReportsTerminalItems(t *testing.T) {
	svc, store, _ := newService(t)
	item, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ok, err := svc.Cancel(context.Background(), item.ID)
	if err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	stored.Status = queue.StatusAbandoned
	testsupport.MustUpdate(t, store, stored)

	ok, err = svc.Cancel(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("cancel terminal: %v", err)
	}
	if ok {
		t.Fatal("terminal item must not accept cancellation")
	}
}

func TestStatusIncludesAllStatuses(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Running {
		t.Fatal("no workflow attached, running must be false")
	}
	if status.QueueStats[string(queue.StatusCreated)] != 1 {
		t.Fatalf("created count = %d", status.QueueStats[string(queue.StatusCreated)])
	}
	if _, ok := status.QueueStats[string(queue.StatusQAReady)]; !ok {
		t.Fatal("expected zero row for empty status")
	}
	if status.Totals.Total != 1 || status.Totals.Waiting != 1 {
		t.Fatalf("totals = %+v", status.Totals)
	}
}

func TestRemoveDeletesItemAndFolder(t *testing.T) {
	svc, _, artifacts := newService(t)
	item, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	testsupport.WriteFile(t, artifacts.Path(item.ID, queue.ArtifactVideo), []byte("payload"))

	if err := svc.Remove(context.Background(), item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := svc.Describe(context.Background(), item.ID); !IsNotFound(err) {
		t.Fatalf("expected item gone, got %v", err)
	}
	folder, err := artifacts.ListFolder(item.ID)
	if err != nil {
		t.Fatalf("list folder: %v", err)
	}
	if len(folder) != 0 {
		t.Fatalf("expected empty folder, got %v", folder)
	}

	if err := svc.Remove(context.Background(), item.ID); !IsNotFound(err) {
		t.Fatalf("expected not found for second remove, got %v", err)
	}
}

func TestRemoveRefusesProcessingItem(t *testing.T) {
	svc, store, _ := newService(t)
	item, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	stored.Status = queue.StatusDownloading
	testsupport.MustUpdate(t, store, stored)

	if err := svc.Remove(context.Background(), item.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDebugListsFolderAndArtifacts(t *testing.T) {
	svc, store, artifacts := newService(t)
	item, err := svc.Submit(context.Background(), "https://example.com/v", "owner-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	testsupport.WriteFile(t, artifacts.Path(stored.ID, queue.ArtifactTranscript), []byte("text"))
	stored.SetArtifactPath(queue.ArtifactTranscript, artifacts.Path(stored.ID, queue.ArtifactTranscript))
	testsupport.MustUpdate(t, store, stored)

	info, err := svc.Debug(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("debug: %v", err)
	}
	if len(info.Folder) != 1 {
		t.Fatalf("folder = %v", info.Folder)
	}
	if len(info.Artifacts) != 1 || info.Artifacts[0].Kind != string(queue.ArtifactTranscript) {
		t.Fatalf("artifacts = %+v", info.Artifacts)
	}
	if info.Artifacts[0].SizeBytes != 4 || !info.Artifacts[0].Readable {
		t.Fatalf("artifact info = %+v", info.Artifacts[0])
	}
}
