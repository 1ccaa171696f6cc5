// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"listing-intake-bot/internal/service/stt"
)

// Config holds recognition settings.
type Config struct {
	CredentialsFile string
	LanguageCode    string
	SampleRateHz    int32
	AudioEncoding   string
}

// DefaultConfig returns settings matching Telegram voice notes (Opus in Ogg, 48 kHz).
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "fr-FR",
		SampleRateHz:  48000,
		AudioEncoding: "OGG_OPUS",
	}
}

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Transcriber using synchronous recognition.
// Synchronous recognition accepts roughly one minute of audio; longer
// payloads are rejected by the API and surface as transcription errors.
type Adapter struct {
	client recognizer
	cfg    Config
}

var _ stt.Transcriber = (*Adapter)(nil)

// New creates a new Google STT adapter. An empty CredentialsFile falls back
// to application default credentials.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google stt client: %w", err)
	}
	return &Adapter{client: c, cfg: withDefaults(cfg)}, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = def.LanguageCode
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = def.SampleRateHz
	}
	if cfg.AudioEncoding == "" {
		cfg.AudioEncoding = def.AudioEncoding
	}
	return cfg
}

// Name returns the provider name.
func (a *Adapter) Name() string { return "google" }

// Transcribe reads the file at path and returns the concatenated top alternatives.
func (a *Adapter) Transcribe(ctx context.Context, path string, opts stt.Options) (string, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("google stt: read audio: %w", err)
	}

	lang := a.cfg.LanguageCode
	if opts.Language != "" {
		lang = opts.Language
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(a.cfg.AudioEncoding),
			SampleRateHertz: a.cfg.SampleRateHz,
			LanguageCode:    lang,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google stt: recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		parts = append(parts, r.GetAlternatives()[0].GetTranscript())
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// parseAudioEncoding maps an encoding name to the API enum, defaulting to OGG_OPUS.
func parseAudioEncoding(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch name {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_OGG_OPUS
	}
}
