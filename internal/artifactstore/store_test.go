package artifactstore_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"spool/internal/artifactstore"
	"spool/internal/media/ffprobe"
	"spool/internal/queue"
	"spool/internal/services"
	"spool/internal/testsupport"
)

type stubProber struct {
	result ffprobe.Result
	err    error
}

func (p stubProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return p.result, p.err
}

func TestPutOverwritesAndFinds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{})

	path, err := store.Put(7, queue.ArtifactTranscript, strings.NewReader("first"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !store.Exists(7, queue.ArtifactTranscript) {
		t.Fatal("expected transcript to exist")
	}

	// Re-running the producing stage overwrites rather than appends.
	if _, err := store.Put(7, queue.ArtifactTranscript, strings.NewReader("second")); err != nil {
		t.Fatalf("Put again: %v", err)
	}
	size, err := store.SizeOf(path)
	if err != nil {
		t.Fatalf("SizeOf: %v", err)
	}
	if size != int64(len("second")) {
		t.Fatalf("expected overwritten size, got %d", size)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{})

	if _, err := store.Put(1, queue.ArtifactTranscript, strings.NewReader("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if store.Exists(2, queue.ArtifactTranscript) {
		t.Fatal("expected item 2 namespace to be empty")
	}

	names, err := store.ListFolder(1)
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	if len(names) != 1 || names[0] != "transcript.txt" {
		t.Fatalf("unexpected folder contents: %v", names)
	}
}

func TestSizeOfMissingArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{})

	if _, err := store.SizeOf(store.Path(9, queue.ArtifactVideo)); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProbeClassifiesParseFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{err: errors.New("moov atom not found")})

	_, err := store.Probe(context.Background(), "/tmp/whatever.mp4")
	if !errors.Is(err, artifactstore.ErrProbeUnavailable) {
		t.Fatalf("expected probe unavailable, got %v", err)
	}
}

func TestProbeReportsStreamInfo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{result: ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: "60.0"},
	}})

	info, err := store.Probe(context.Background(), "/tmp/video.mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !info.Readable || info.VideoStreams != 1 || info.AudioStreams != 1 || info.DurationSeconds != 60 {
		t.Fatalf("unexpected probe info: %#v", info)
	}
}

func TestListFolderMissingNamespace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{})

	names, err := store.ListFolder(404)
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty listing, got %v", names)
	}
}

func TestRemoveItemDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := artifactstore.NewWithProber(cfg, stubProber{})

	path := store.Path(7, queue.ArtifactVideo)
	testsupport.WriteFile(t, path, []byte("payload"))

	if err := store.RemoveItemDir(7); err != nil {
		t.Fatalf("remove item dir: %v", err)
	}
	if _, err := os.Stat(store.ItemDir(7)); !os.IsNotExist(err) {
		t.Fatalf("expected namespace gone, got %v", err)
	}

	// Removing an absent namespace is not an error.
	if err := store.RemoveItemDir(7); err != nil {
		t.Fatalf("remove absent dir: %v", err)
	}
}
