package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type fakeExecutor struct {
	stdout []string
	err    error

	binary string
	args   []string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	f.binary = binary
	f.args = args
	for _, line := range f.stdout {
		if onStdout != nil {
			onStdout(line)
		}
	}
	return f.err
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("   "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestFetchMetadataParsesDump(t *testing.T) {
	exec := &fakeExecutor{stdout: []string{
		`{"title":"Talk","description":"A talk","thumbnail":"https://img.example/t.jpg","duration":1234.5,"uploader":"chan"}`,
	}}
	client, err := New("yt-dlp", WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	meta, err := client.FetchMetadata(context.Background(), "https://example.com/watch?v=abc")
	if err != nil {
		t.Fatalf("fetch metadata: %v", err)
	}
	if meta.Title != "Talk" || meta.DurationSeconds != 1234.5 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	joined := strings.Join(exec.args, " ")
	if !strings.Contains(joined, "--dump-json") || !strings.Contains(joined, "--no-download") {
		t.Fatalf("unexpected args: %v", exec.args)
	}
}

func TestFetchMetadataEmptyResponse(t *testing.T) {
	client, err := New("yt-dlp", WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchMetadata(context.Background(), "https://example.com/v"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestDownloadBuildsOverwriteArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := New("yt-dlp", WithExecutor(exec))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	dest := filepath.Join(t.TempDir(), "42", "video.mp4")
	if err := client.Download(context.Background(), "https://example.com/v", dest); err != nil {
		t.Fatalf("download: %v", err)
	}
	joined := strings.Join(exec.args, " ")
	if !strings.Contains(joined, "--force-overwrites") {
		t.Fatalf("expected overwrite flag, got %v", exec.args)
	}
	if !strings.Contains(joined, dest) {
		t.Fatalf("expected destination in args, got %v", exec.args)
	}
}

func TestIsUnsupportedSource(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("ERROR: Unsupported URL: https://example.com"), true},
		{errors.New("'not-a-url' is not a valid URL"), true},
		{errors.New("ERROR: Video unavailable"), true},
		{errors.New("HTTP Error 503: Service Unavailable"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsUnsupportedSource(tc.err); got != tc.want {
			t.Fatalf("IsUnsupportedSource(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsTransientFailure(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("HTTP Error 503: Service Unavailable"), true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("The read operation timed out"), true},
		{errors.New("ERROR: Unsupported URL: https://example.com"), false},
		{errors.New("ERROR: requested format is not available"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsTransientFailure(tc.err); got != tc.want {
			t.Fatalf("IsTransientFailure(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
