package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"

	"spool/internal/api"
	"spool/internal/artifactstore"
	"spool/internal/config"
	"spool/internal/logging"
	"spool/internal/queue"
	"spool/internal/stage"
	"spool/internal/testsupport"
	"spool/internal/workflow"
)

type parkingHandler struct{}

func (parkingHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (parkingHandler) Execute(ctx context.Context, item *queue.Item) error {
	<-ctx.Done()
	return ctx.Err()
}

func (parkingHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("parking")
}

func newTestDaemon(t *testing.T) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	// Workers poll once at startup and then sleep past the end of the test,
	// so submitted items keep their intake status while HTTP behavior is
	// asserted.
	cfg.Workflow.QueuePollInterval = 3600
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	artifacts := artifactstore.New(cfg)
	// If a worker claims an item anyway, the stage parks until shutdown, so
	// the item stays active for the duration of the test.
	park := parkingHandler{}
	manager := workflow.NewManagerWithStages(cfg, store, logging.NewNop(), nil, nil, workflow.StageSet{
		FetchMetadata: park,
		FetchMedia:    park,
		Validate:      park,
		ExtractAudio:  park,
		Transcribe:    park,
	})
	service := api.NewService(store, artifacts, manager, logging.NewNop())

	d, err := New(cfg, store, logging.NewNop(), manager, service)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d, cfg
}

func TestDaemonSingleInstance(t *testing.T) {
	d, cfg := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if !d.Running() {
		t.Fatal("daemon should report running")
	}

	store2, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open second store: %v", err)
	}
	defer store2.Close()
	manager2 := workflow.NewManagerWithStages(cfg, store2, logging.NewNop(), nil, nil, workflow.StageSet{})
	service2 := api.NewService(store2, artifactstore.New(cfg), manager2, logging.NewNop())
	second, err := New(cfg, store2, logging.NewNop(), manager2, service2)
	if err != nil {
		t.Fatalf("new second daemon: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must not acquire the lock")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()
	d.Stop()
	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestHTTPSubmitDescribeCancel(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()
	base := "http://" + d.APIAddr()

	body, _ := json.Marshal(submitRequest{SourceRef: "https://example.com/watch?v=abc", OwnerID: "owner-1"})
	resp, err := http.Post(base+"/api/items", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	var item api.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if item.ID == 0 || item.SourceRef != "https://example.com/watch?v=abc" {
		t.Fatalf("unexpected item: %+v", item)
	}

	// Duplicate active source is a conflict.
	resp2, err := http.Post(base+"/api/items", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post dup: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d", resp2.StatusCode)
	}

	resp3, err := http.Get(fmt.Sprintf("%s/api/items/%d", base, item.ID))
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("describe status = %d", resp3.StatusCode)
	}

	resp4, err := http.Post(fmt.Sprintf("%s/api/items/%d/cancel", base, item.ID), "application/json", nil)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	defer resp4.Body.Close()
	var cancelled cancelResponse
	if err := json.NewDecoder(resp4.Body).Decode(&cancelled); err != nil {
		t.Fatalf("decode cancel: %v", err)
	}
	if !cancelled.Cancelled {
		t.Fatal("expected cancellation to be accepted")
	}
}

func TestHTTPStatusAndErrors(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()
	base := "http://" + d.APIAddr()

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	var status api.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("status should report running workflow")
	}

	resp2, err := http.Get(base + "/api/items/99999")
	if err != nil {
		t.Fatalf("missing item: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("missing item status = %d", resp2.StatusCode)
	}

	bad, _ := json.Marshal(submitRequest{SourceRef: "not-a-url"})
	resp3, err := http.Post(base+"/api/items", "application/json", bytes.NewReader(bad))
	if err != nil {
		t.Fatalf("bad submit: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad submit status = %d", resp3.StatusCode)
	}
}

func TestHTTPRemove(t *testing.T) {
	d, _ := newTestDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()
	base := "http://" + d.APIAddr()

	body, _ := json.Marshal(submitRequest{SourceRef: "https://example.com/watch?v=rm", OwnerID: "owner-1"})
	resp, err := http.Post(base+"/api/items", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var item api.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/items/%d", base, item.ID), nil)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp2.StatusCode)
	}

	resp3, err := http.Get(fmt.Sprintf("%s/api/items/%d", base, item.ID))
	if err != nil {
		t.Fatalf("get removed: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Fatalf("removed item status = %d", resp3.StatusCode)
	}
}
