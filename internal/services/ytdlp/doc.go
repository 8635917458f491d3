// Package ytdlp wraps the yt-dlp CLI for source metadata inspection and
// media download.
package ytdlp
