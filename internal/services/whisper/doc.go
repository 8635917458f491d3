// Package whisper wraps the whisper CLI for speech-to-text transcription.
package whisper
