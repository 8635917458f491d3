package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"spool/internal/fileutil"
)

// Transcriber defines the behaviour the transcription stage requires.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, transcriptPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
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

// Client wraps the whisper CLI.
type Client struct {
	binary string
	model  string
	exec   Executor
}

// New constructs a whisper client. An empty model keeps the tool default.
func New(binary, model string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("whisper binary required")
	}
	client := &Client{binary: binary, model: strings.TrimSpace(model), exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe runs speech recognition on the audio file and writes the plain
// text transcript to transcriptPath. The tool writes its output next to the
// input; the result is moved into place afterwards so a crash mid-run never
// leaves a half-written transcript at the final path.
func (c *Client) Transcribe(ctx context.Context, audioPath, transcriptPath string) error {
	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return errors.New("audio path required")
	}
	transcriptPath = strings.TrimSpace(transcriptPath)
	if transcriptPath == "" {
		return errors.New("transcript path required")
	}
	outDir := filepath.Dir(transcriptPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		"--output_format", "txt",
		"--output_dir", outDir,
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	args = append(args, audioPath)

	if err := c.exec.Run(ctx, c.binary, args); err != nil {
		return fmt.Errorf("whisper transcribe: %w", err)
	}

	// The tool names its output after the input file.
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	produced := filepath.Join(outDir, base+".txt")
	if produced == transcriptPath {
		return nil
	}
	if err := fileutil.MoveFile(produced, transcriptPath); err != nil {
		return fmt.Errorf("whisper transcribe: move output: %w", err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
		return err
	}
	return nil
}
