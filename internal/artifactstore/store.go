package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"spool/internal/config"
	"spool/internal/media/ffprobe"
	"spool/internal/queue"
	"spool/internal/services"
)

// ErrProbeUnavailable indicates the inspection tool could not parse the
// artifact. This is a validation signal, not a store failure.
var ErrProbeUnavailable = errors.New("probe unavailable")

// ProbeInfo summarizes what the inspection tool reported about an artifact.
type ProbeInfo struct {
	DurationSeconds float64
	VideoStreams    int
	AudioStreams    int
	Readable        bool
}

// Prober abstracts the media inspection tool so tests can substitute a stub.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

type commandProber struct {
	binary string
}

func (p commandProber) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.binary, path)
}

// Store lays out one namespace directory per item so artifacts from different
// items can never collide.
type Store struct {
	root   string
	prober Prober
}

// New constructs an artifact store rooted at the configured work directory.
func New(cfg *config.Config) *Store {
	return NewWithProber(cfg, commandProber{binary: cfg.Tools.FFprobe})
}

// NewWithProber allows injecting the inspection tool (used in tests).
func NewWithProber(cfg *config.Config, prober Prober) *Store {
	return &Store{root: cfg.Paths.WorkDir, prober: prober}
}

// Root returns the store's base directory.
func (s *Store) Root() string {
	return s.root
}

// ItemDir returns the namespace directory for an item.
func (s *Store) ItemDir(itemID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(itemID, 10))
}

// EnsureItemDir creates the namespace directory for an item.
func (s *Store) EnsureItemDir(itemID int64) (string, error) {
	dir := s.ItemDir(itemID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrStoreIO, "artifact-store", "ensure item dir", dir, err)
	}
	return dir, nil
}

// DefaultName returns the canonical filename for an artifact kind.
func DefaultName(kind queue.ArtifactKind) string {
	switch kind {
	case queue.ArtifactVideo:
		return "video.mp4"
	case queue.ArtifactAudio:
		return "audio.wav"
	case queue.ArtifactTranscript:
		return "transcript.txt"
	default:
		return string(kind)
	}
}

// Path returns the canonical location for an artifact kind within an item's namespace.
func (s *Store) Path(itemID int64, kind queue.ArtifactKind) string {
	return filepath.Join(s.ItemDir(itemID), DefaultName(kind))
}

// Put writes an artifact under its canonical name, overwriting any previous
// content so repair re-runs stay idempotent.
func (s *Store) Put(itemID int64, kind queue.ArtifactKind, r io.Reader) (string, error) {
	dir, err := s.EnsureItemDir(itemID)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, DefaultName(kind))
	tmp := target + ".partial"

	file, err := os.Create(tmp)
	if err != nil {
		return "", services.Wrap(services.ErrStoreIO, "artifact-store", "create artifact", tmp, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrStoreIO, "artifact-store", "write artifact", tmp, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrStoreIO, "artifact-store", "close artifact", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", services.Wrap(services.ErrStoreIO, "artifact-store", "publish artifact", target, err)
	}
	return target, nil
}

// Find scans an item's namespace for an artifact of the given kind. Artifacts
// are matched by basename prefix so container extensions may vary.
func (s *Store) Find(itemID int64, kind queue.ArtifactKind) (string, bool) {
	entries, err := os.ReadDir(s.ItemDir(itemID))
	if err != nil {
		return "", false
	}
	prefix := string(kind) + "."
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, ".partial") {
			return filepath.Join(s.ItemDir(itemID), name), true
		}
	}
	return "", false
}

// Exists reports whether an artifact of the given kind is present for an item.
func (s *Store) Exists(itemID int64, kind queue.ArtifactKind) bool {
	_, ok := s.Find(itemID, kind)
	return ok
}

// SizeOf returns the size in bytes of the artifact at path.
func (s *Store) SizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", services.ErrNotFound, path)
		}
		return 0, services.Wrap(services.ErrStoreIO, "artifact-store", "stat artifact", path, err)
	}
	return info.Size(), nil
}

// Probe inspects the artifact at path. A tool parse failure is reported as
// ErrProbeUnavailable so the validator can classify the artifact unreadable.
func (s *Store) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	result, err := s.prober.Inspect(ctx, path)
	if err != nil {
		return ProbeInfo{}, fmt.Errorf("%w: %s", ErrProbeUnavailable, err)
	}
	return ProbeInfo{
		DurationSeconds: result.DurationSeconds(),
		VideoStreams:    result.VideoStreamCount(),
		AudioStreams:    result.AudioStreamCount(),
		Readable:        true,
	}, nil
}

// RemoveItemDir deletes an item's namespace directory and everything in it.
func (s *Store) RemoveItemDir(itemID int64) error {
	dir := s.ItemDir(itemID)
	if err := os.RemoveAll(dir); err != nil {
		return services.Wrap(services.ErrStoreIO, "artifact-store", "remove item dir", dir, err)
	}
	return nil
}

// ListFolder returns the filenames currently present in an item's namespace.
func (s *Store) ListFolder(itemID int64) ([]string, error) {
	entries, err := os.ReadDir(s.ItemDir(itemID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStoreIO, "artifact-store", "list item dir", s.ItemDir(itemID), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
