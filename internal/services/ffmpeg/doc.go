// Package ffmpeg wraps the ffmpeg CLI for audio track extraction.
package ffmpeg
