package config

const (
	defaultWorkDir            = "~/.local/share/spool/items"
	defaultLogDir             = "~/.local/share/spool/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultYtDlp              = "yt-dlp"
	defaultFFmpeg             = "ffmpeg"
	defaultFFprobe            = "ffprobe"
	defaultWhisper            = "whisper"
	defaultWhisperModel       = "base"
	defaultFetchConcurrency   = 2
	defaultExtractConcurrency = 2
	defaultMaxRetries         = 2
	defaultDurationTolerance  = 2.0
	defaultMinVideoBytes      = 1 << 20
	defaultMinAudioBytes      = 16 << 10
	defaultStallWindowSeconds = 600
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Tools: Tools{
			YtDlp:        defaultYtDlp,
			FFmpeg:       defaultFFmpeg,
			FFprobe:      defaultFFprobe,
			Whisper:      defaultWhisper,
			WhisperModel: defaultWhisperModel,
		},
		Pipeline: Pipeline{
			FetchConcurrency:   defaultFetchConcurrency,
			ExtractConcurrency: defaultExtractConcurrency,
			MaxRetries:         defaultMaxRetries,
			DurationTolerance:  defaultDurationTolerance,
			MinVideoBytes:      defaultMinVideoBytes,
			MinAudioBytes:      defaultMinAudioBytes,
			StallWindowSeconds: defaultStallWindowSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
