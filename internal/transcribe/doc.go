// Package transcribe runs speech recognition over extracted audio.
package transcribe
