package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	if strings.TrimSpace(c.Tools.YtDlp) == "" {
		c.Tools.YtDlp = defaultYtDlp
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	if strings.TrimSpace(c.Tools.Whisper) == "" {
		c.Tools.Whisper = defaultWhisper
	}
	if strings.TrimSpace(c.Tools.WhisperModel) == "" {
		c.Tools.WhisperModel = defaultWhisperModel
	}

	if c.Pipeline.FetchConcurrency == 0 {
		c.Pipeline.FetchConcurrency = defaultFetchConcurrency
	}
	if c.Pipeline.ExtractConcurrency == 0 {
		c.Pipeline.ExtractConcurrency = defaultExtractConcurrency
	}
	if c.Pipeline.DurationTolerance == 0 {
		c.Pipeline.DurationTolerance = defaultDurationTolerance
	}
	if c.Pipeline.MinVideoBytes == 0 {
		c.Pipeline.MinVideoBytes = defaultMinVideoBytes
	}
	if c.Pipeline.MinAudioBytes == 0 {
		c.Pipeline.MinAudioBytes = defaultMinAudioBytes
	}
	if c.Pipeline.StallWindowSeconds == 0 {
		c.Pipeline.StallWindowSeconds = defaultStallWindowSeconds
	}

	if c.Workflow.QueuePollInterval == 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval == 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
