package testsupport

import (
	"path/filepath"
	"testing"

	"spool/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "items")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMaxRetries overrides the repair bound on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.MaxRetries = n
	}
}

// WithFetchConcurrency overrides the fetch ceiling on the test config.
func WithFetchConcurrency(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.FetchConcurrency = n
	}
}

// WithExtractConcurrency overrides the extraction ceiling on the test config.
func WithExtractConcurrency(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.ExtractConcurrency = n
	}
}
