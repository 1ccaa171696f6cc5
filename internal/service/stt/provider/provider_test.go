package provider

import (
	"context"
	"errors"
	"testing"

	"listing-intake-bot/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.STTConfig
		wantName    string
		wantErr     bool
		wantMissing bool
	}{
		{"mock", config.STTConfig{Provider: config.ProviderMock}, "mock", false, false},
		{"whisper", config.STTConfig{Provider: config.ProviderWhisper, APIKey: "sk-test"}, "whisper", false, false},
		{"default provider", config.STTConfig{APIKey: "sk-test"}, "whisper", false, false},
		{"whisper without key", config.STTConfig{Provider: config.ProviderWhisper}, "", true, true},
		{"google without credentials", config.STTConfig{Provider: config.ProviderGoogle}, "", true, true},
		{"unknown", config.STTConfig{Provider: "acme"}, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if got := errors.Is(err, ErrNotConfigured); got != tt.wantMissing {
					t.Errorf("errors.Is(err, ErrNotConfigured) = %v, want %v (err: %v)", got, tt.wantMissing, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tr.Name() != tt.wantName {
				t.Errorf("expected provider %s, got %s", tt.wantName, tr.Name())
			}
		})
	}
}
