package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Metadata captures the source description yt-dlp reports before download.
type Metadata struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Thumbnail       string  `json:"thumbnail"`
	DurationSeconds float64 `json:"duration"`
	Uploader        string  `json:"uploader"`
}

// Fetcher defines the behaviour the fetch stages require.
type Fetcher interface {
	FetchMetadata(ctx context.Context, sourceRef string) (Metadata, error)
	Download(ctx context.Context, sourceRef, destPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchMetadata inspects the source without downloading any media.
func (c *Client) FetchMetadata(ctx context.Context, sourceRef string) (Metadata, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return Metadata{}, errors.New("source reference required")
	}

	args := []string{"--dump-json", "--no-download", "--no-playlist", "--", sourceRef}
	var lines []string
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return Metadata{}, classify("fetch metadata", err)
	}

	raw := strings.TrimSpace(strings.Join(lines, "\n"))
	if raw == "" {
		return Metadata{}, errors.New("fetch metadata: empty response")
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return Metadata{}, fmt.Errorf("fetch metadata: parse response: %w", err)
	}
	return meta, nil
}

// Download fetches the media into destPath, replacing any previous copy.
func (c *Client) Download(ctx context.Context, sourceRef, destPath string) error {
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return errors.New("source reference required")
	}
	destPath = strings.TrimSpace(destPath)
	if destPath == "" {
		return errors.New("destination path required")
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	args := []string{
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--no-playlist",
		"--force-overwrites",
		"-o", destPath,
		"--", sourceRef,
	}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return classify("download", err)
	}
	return nil
}

// inputErrorMarkers are yt-dlp failures no retry can cure.
var inputErrorMarkers = []string{
	"unsupported url",
	"is not a valid url",
	"video unavailable",
	"private video",
	"this video has been removed",
	"account associated with this video has been terminated",
}

// IsUnsupportedSource reports whether the failure stems from the source
// reference itself rather than a transient network or tool condition.
func IsUnsupportedSource(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range inputErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// transientMarkers indicate network conditions a short in-place retry may cure.
var transientMarkers = []string{
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure in name resolution",
	"http error 5",
	"unable to download webpage",
}

// IsTransientFailure reports whether the failure looks like a short-lived
// network condition rather than a permanent source or tool problem.
func IsTransientFailure(err error) bool {
	if err == nil || IsUnsupportedSource(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func classify(op string, err error) error {
	return fmt.Errorf("yt-dlp %s: %w", op, err)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanLines(stdout, onStdout)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
