// Package config loads the bot's configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingBotToken is returned by Validate when no chat-platform credential is set.
var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN must be set")

// STT provider names.
const (
	ProviderWhisper = "whisper"
	ProviderGoogle  = "google"
	ProviderMock    = "mock"
)

// Config is the full process configuration.
type Config struct {
	Service       ServiceConfig
	Telegram      TelegramConfig
	STT           STTConfig
	Voice         VoiceConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process identity and listener settings.
type ServiceConfig struct {
	Principal string
	GRPCPort  string
	Env       string
}

// TelegramConfig holds chat-platform settings.
type TelegramConfig struct {
	Token       string
	Debug       bool
	PollTimeout int // seconds
}

// STTConfig holds speech-to-text provider settings.
type STTConfig struct {
	Provider        string
	APIKey          string // bearer credential for whisper
	BaseURL         string
	Model           string
	LanguageCode    string
	CredentialsFile string // service account file for google
	AudioEncoding   string
	SampleRateHz    int
	Timeout         time.Duration
}

// Configured reports whether the selected provider has the credential it needs.
func (s STTConfig) Configured() bool {
	switch s.Provider {
	case ProviderMock:
		return true
	case ProviderGoogle:
		return s.CredentialsFile != ""
	default:
		return s.APIKey != ""
	}
}

// SelectProvider switches the provider. The language follows the new
// provider's default unless STT_LANGUAGE_CODE pins it.
func (s *STTConfig) SelectProvider(name string) {
	s.Provider = strings.ToLower(name)
	if os.Getenv("STT_LANGUAGE_CODE") == "" {
		s.LanguageCode = defaultLanguage(s.Provider)
	}
}

// VoiceConfig holds limits for the voice transcription pipeline.
type VoiceConfig struct {
	TempDir       string
	MaxAudioBytes int64
	MaxDuration   time.Duration
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicSheets      string
	TopicTranscripts string
	Principal        string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads configuration from the environment, after loading an optional .env file.
// Invalid values fall back to their defaults.
func Load() *Config {
	// A missing .env file is the normal case in deployed environments.
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-listing-intake")
	provider := strings.ToLower(envOrDefault("STT_PROVIDER", ProviderWhisper))

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			Env:       envOrDefault("ENV", "prod"),
		},
		Telegram: TelegramConfig{
			Token:       strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
			Debug:       envOrDefaultBool("TELEGRAM_DEBUG", false),
			PollTimeout: envOrDefaultInt("TELEGRAM_POLL_TIMEOUT", 60),
		},
		STT: STTConfig{
			Provider:        provider,
			APIKey:          strings.TrimSpace(envOrDefault("STT_API_KEY", os.Getenv("OPENAI_API_KEY"))),
			BaseURL:         envOrDefault("STT_BASE_URL", "https://api.openai.com/v1"),
			Model:           envOrDefault("STT_MODEL", "whisper-1"),
			LanguageCode:    envOrDefault("STT_LANGUAGE_CODE", defaultLanguage(provider)),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			AudioEncoding:   envOrDefault("STT_AUDIO_ENCODING", "OGG_OPUS"),
			SampleRateHz:    envOrDefaultInt("STT_SAMPLE_RATE_HZ", 48000),
			Timeout:         envOrDefaultDuration("STT_TIMEOUT", 60*time.Second),
		},
		Voice: VoiceConfig{
			TempDir:       envOrDefault("VOICE_TEMP_DIR", os.TempDir()),
			MaxAudioBytes: int64(envOrDefaultInt("VOICE_MAX_AUDIO_BYTES", 20*1024*1024)),
			MaxDuration:   envOrDefaultDuration("VOICE_MAX_DURATION", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          envOrDefaultList("KAFKA_BROKERS", nil),
			TopicSheets:      envOrDefault("KAFKA_TOPIC_SHEETS", "listing.sheets"),
			TopicTranscripts: envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "listing.transcripts"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

// Validate checks the settings without which the process must not start.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingBotToken
	}
	return nil
}

func defaultLanguage(provider string) string {
	if provider == ProviderGoogle {
		return "fr-FR"
	}
	return "fr"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
