// Package whisper provides an OpenAI-compatible Whisper transcription adapter.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"listing-intake-bot/internal/service/stt"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"
	endpointPath   = "/audio/transcriptions"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 << 10
)

// ErrMissingAPIKey is returned by New when no bearer credential is given.
var ErrMissingAPIKey = errors.New("whisper: missing api key")

// Config holds Whisper adapter configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns the default adapter configuration without a credential.
func DefaultConfig() Config {
	return Config{
		BaseURL: defaultBaseURL,
		Model:   defaultModel,
		Timeout: 60 * time.Second,
	}
}

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whisper api %d: %s", e.StatusCode, e.Body)
}

// Adapter implements stt.Transcriber against the /audio/transcriptions endpoint.
type Adapter struct {
	hc     *http.Client
	url    string
	apiKey string
	model  string
}

var _ stt.Transcriber = (*Adapter)(nil)

// New creates a new Whisper adapter.
func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Adapter{
		hc:     &http.Client{Timeout: cfg.Timeout},
		url:    strings.TrimRight(cfg.BaseURL, "/") + endpointPath,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string { return "whisper" }

// Transcribe uploads the file at path and returns the plain-text transcript.
func (a *Adapter) Transcribe(ctx context.Context, path string, opts stt.Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()

	// Stream the multipart body instead of buffering the whole file.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(a.writeForm(mw, f, filepath.Base(path), opts))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("whisper: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.hc.Do(req)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("whisper: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response: %w", err)
	}
	return string(body), nil
}

func (a *Adapter) writeForm(mw *multipart.Writer, audio io.Reader, filename string, opts stt.Options) error {
	if err := mw.WriteField("model", a.model); err != nil {
		return err
	}
	if opts.Language != "" {
		if err := mw.WriteField("language", opts.Language); err != nil {
			return err
		}
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return err
	}
	return mw.Close()
}
