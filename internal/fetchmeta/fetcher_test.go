package fetchmeta

import (
	"context"
	"errors"
	"testing"

	"spool/internal/logging"
	"spool/internal/services"
	"spool/internal/services/ytdlp"
	"spool/internal/testsupport"
)

type fakeFetcher struct {
	meta ytdlp.Metadata
	err  error
}

func (f fakeFetcher) FetchMetadata(ctx context.Context, sourceRef string) (ytdlp.Metadata, error) {
	return f.meta, f.err
}

func (f fakeFetcher) Download(ctx context.Context, sourceRef, destPath string) error {
	return errors.New("not implemented")
}

func TestExecuteAppliesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/watch?v=abc", "owner-1")

	handler := NewWithClient(cfg, store, logging.NewNop(), fakeFetcher{meta: ytdlp.Metadata{
		Title:           "  Deep   Dive  ",
		Description:     "desc",
		Thumbnail:       "https://img.example/abc.jpg",
		DurationSeconds: 321,
	}})

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if item.Title != "Deep Dive" {
		t.Fatalf("title = %q", item.Title)
	}
	if item.SourceDuration != 321 {
		t.Fatalf("duration = %v", item.SourceDuration)
	}
	if item.ThumbnailRef == "" || item.Description == "" {
		t.Fatalf("metadata not applied: %+v", item)
	}
}

func TestExecuteDerivesTitleWhenSourceReportsNone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/watch?v=great-talk", "owner-1")

	handler := NewWithClient(cfg, store, logging.NewNop(), fakeFetcher{meta: ytdlp.Metadata{DurationSeconds: 10}})
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if item.Title == "" {
		t.Fatal("expected derived title")
	}
}

func TestExecuteClassifiesUnsupportedSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/broken", "owner-1")

	handler := NewWithClient(cfg, store, logging.NewNop(), fakeFetcher{err: errors.New("ERROR: Unsupported URL: https://example.com/broken")})
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if services.IsRetryable(err) {
		t.Fatal("input errors must not be retryable")
	}
}

func TestExecuteClassifiesToolFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/flaky", "owner-1")

	handler := NewWithClient(cfg, store, logging.NewNop(), fakeFetcher{err: errors.New("ERROR: unable to extract player response")})
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !services.IsRetryable(err) {
		t.Fatal("tool failures should be retryable")
	}
}

type flakyFetcher struct {
	calls *int
	meta  ytdlp.Metadata
}

func (f flakyFetcher) FetchMetadata(ctx context.Context, sourceRef string) (ytdlp.Metadata, error) {
	*f.calls++
	if *f.calls == 1 {
		return ytdlp.Metadata{}, errors.New("HTTP Error 503: Service Unavailable")
	}
	return f.meta, nil
}

func (f flakyFetcher) Download(ctx context.Context, sourceRef, destPath string) error {
	return errors.New("not implemented")
}

func TestExecuteRetriesTransientFailureInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/flaky", "owner-1")

	calls := 0
	handler := NewWithClient(cfg, store, logging.NewNop(), flakyFetcher{calls: &calls, meta: ytdlp.Metadata{Title: "Recovered", DurationSeconds: 5}})
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if item.Title != "Recovered" {
		t.Fatalf("title = %q", item.Title)
	}
}

func TestExecuteWithoutClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "https://example.com/v", "owner-1")

	handler := NewWithClient(cfg, store, logging.NewNop(), nil)
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
