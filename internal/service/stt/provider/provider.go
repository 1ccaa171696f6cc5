// Package provider builds the speech-to-text adapter selected by configuration.
package provider

import (
	"context"
	"errors"
	"fmt"

	"listing-intake-bot/internal/config"
	"listing-intake-bot/internal/service/stt"
	"listing-intake-bot/internal/service/stt/google"
	"listing-intake-bot/internal/service/stt/mock"
	"listing-intake-bot/internal/service/stt/whisper"
)

// ErrNotConfigured is returned when the selected provider has no credential.
var ErrNotConfigured = errors.New("stt provider not configured")

// New builds the transcriber named by cfg.Provider.
func New(ctx context.Context, cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		return mock.New(), nil

	case config.ProviderGoogle:
		if !cfg.Configured() {
			return nil, fmt.Errorf("%w: GOOGLE_APPLICATION_CREDENTIALS is empty", ErrNotConfigured)
		}
		a, err := google.New(ctx, google.Config{
			CredentialsFile: cfg.CredentialsFile,
			LanguageCode:    cfg.LanguageCode,
			SampleRateHz:    int32(cfg.SampleRateHz),
			AudioEncoding:   cfg.AudioEncoding,
		})
		if err != nil {
			return nil, err
		}
		return a, nil

	case config.ProviderWhisper, "":
		if !cfg.Configured() {
			return nil, fmt.Errorf("%w: STT_API_KEY is empty", ErrNotConfigured)
		}
		a, err := whisper.New(whisper.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.Provider)
	}
}
