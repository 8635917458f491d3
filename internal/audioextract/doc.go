// Package audioextract converts downloaded video into the mono WAV track the
// transcription stage consumes.
package audioextract
