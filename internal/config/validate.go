package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Pipeline.FetchConcurrency < 1 {
		return errors.New("pipeline.fetch_concurrency must be at least 1")
	}
	if c.Pipeline.ExtractConcurrency < 1 {
		return errors.New("pipeline.extract_concurrency must be at least 1")
	}
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("pipeline.max_retries must not be negative")
	}
	if c.Pipeline.DurationTolerance <= 0 {
		return errors.New("pipeline.duration_tolerance must be positive")
	}
	if c.Pipeline.MinVideoBytes < 1 {
		return errors.New("pipeline.min_video_bytes must be positive")
	}
	if c.Pipeline.MinAudioBytes < 1 {
		return errors.New("pipeline.min_audio_bytes must be positive")
	}
	if c.Pipeline.StallWindowSeconds < 1 {
		return errors.New("pipeline.stall_window_seconds must be positive")
	}
	if c.Workflow.QueuePollInterval < 1 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
