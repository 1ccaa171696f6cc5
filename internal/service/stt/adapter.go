// Package stt defines the interface for Speech-to-Text adapters.
package stt

import "context"

// Options carries per-request transcription settings.
type Options struct {
	// Language is the spoken-language hint ("fr" for whisper, "fr-FR" for google).
	Language string
}

// Transcriber defines the interface for STT providers (Whisper, Google, etc.).
type Transcriber interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe converts the audio file at path into plain text.
	// The returned text is the provider's transcript, unmodified.
	Transcribe(ctx context.Context, path string, opts Options) (string, error)
}
