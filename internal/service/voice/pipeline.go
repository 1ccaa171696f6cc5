// Package voice turns a chat voice message into a transcript reply.
//
// A job downloads the audio into a temporary file, hands the file to the
// configured speech-to-text provider and renders the result. The temporary
// file never outlives the job, whatever the outcome.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"listing-intake-bot/internal/models"
	"listing-intake-bot/internal/observability/logging"
	"listing-intake-bot/internal/observability/metrics"
	"listing-intake-bot/internal/render"
	"listing-intake-bot/internal/service/stt"
	"listing-intake-bot/internal/sheet"
)

// Errors reported in failed outcomes. Their text is shown to the user.
var (
	ErrNotConfigured = errors.New("transcription service not configured")
	ErrAudioTooLong  = errors.New("voice message is too long")
	ErrAudioTooLarge = errors.New("voice message is too large")
	ErrDownload      = errors.New("could not download the voice message")
	ErrSTT           = errors.New("speech-to-text error")
	ErrInternal      = errors.New("internal error")
)

// Outcome labels for metrics.
const (
	outcomeSuccess       = "success"
	outcomeNotConfigured = "not_configured"
	outcomeTooLong       = "too_long"
	outcomeTooLarge      = "too_large"
	outcomeDownload      = "download_failed"
	outcomeSTT           = "stt_failed"
	outcomePanic         = "panic"
)

// Downloader fetches the audio behind a platform file reference.
type Downloader interface {
	Download(ctx context.Context, fileID string, dst io.Writer) (int64, error)
}

// TranscriptPublisher receives one event per finished job.
type TranscriptPublisher interface {
	PublishTranscript(ctx context.Context, key string, eventType string, event any) error
}

// Limits defines safety guardrails for a single voice job.
type Limits struct {
	MaxAudioBytes int64         // Max downloaded audio, 0 disables
	MaxDuration   time.Duration // Max declared duration, 0 disables
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 20 * 1024 * 1024, // Telegram bot API download cap
		MaxDuration:   10 * time.Minute,
	}
}

// Config configures a Pipeline.
type Config struct {
	TempDir  string // empty means os.TempDir()
	Language string
	Limits   Limits
	Metrics  *metrics.Metrics
}

// Request describes one voice message.
type Request struct {
	UserID           int64
	FileID           string
	DeclaredDuration time.Duration
	Sheet            sheet.Sheet // snapshot used for the progress line
}

// Outcome is the result of a voice job. Err is nil on success.
type Outcome struct {
	JobID string
	Text  string
	Reply string
	Err   error
	State State
}

// OK reports whether the job produced a transcript.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Detail is the human-readable failure reason, empty on success.
func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Pipeline runs voice jobs. It is safe for concurrent use.
type Pipeline struct {
	cfg         Config
	downloader  Downloader
	transcriber stt.Transcriber
	jobs        *Generator
	metrics     *metrics.Metrics

	mu        sync.RWMutex
	publisher TranscriptPublisher
}

// New creates a pipeline. A nil transcriber means transcription is not
// configured: every job then fails without touching the network.
func New(cfg Config, downloader Downloader, transcriber stt.Transcriber) *Pipeline {
	m := cfg.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Pipeline{
		cfg:         cfg,
		downloader:  downloader,
		transcriber: transcriber,
		jobs:        NewGenerator(),
		metrics:     m,
	}
}

// SetPublisher sets where transcript events are sent.
func (p *Pipeline) SetPublisher(pub TranscriptPublisher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publisher = pub
}

// Configured reports whether a speech-to-text provider is available.
func (p *Pipeline) Configured() bool {
	return p.transcriber != nil
}

// Provider returns the speech-to-text provider name, or "none".
func (p *Pipeline) Provider() string {
	if p.transcriber == nil {
		return "none"
	}
	return p.transcriber.Name()
}

// Transcribe runs one voice job to completion. It never panics and always
// returns a terminal outcome.
func (p *Pipeline) Transcribe(ctx context.Context, req Request) (out Outcome) {
	start := time.Now()
	lc := NewLifecycle(p.jobs.Next(req.UserID))
	logger := logging.WithJob(lc.JobID(), req.UserID, p.Provider())

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Voice job panicked")
			out = Outcome{Err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}
		p.finish(ctx, logger, lc, req, &out, time.Since(start))
	}()

	text, err := p.run(ctx, logger, lc, req)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Text: text}
}

func (p *Pipeline) run(ctx context.Context, logger zerolog.Logger, lc *Lifecycle, req Request) (string, error) {
	if p.transcriber == nil {
		return "", ErrNotConfigured
	}

	limits := p.cfg.Limits
	if limits.MaxDuration > 0 && req.DeclaredDuration > limits.MaxDuration {
		return "", fmt.Errorf("%w (%s, max %s)", ErrAudioTooLong, req.DeclaredDuration, limits.MaxDuration)
	}

	f, err := os.CreateTemp(p.cfg.TempDir, "voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	p.metrics.RecordTempFileCreated()
	path := f.Name()
	defer func() {
		_ = f.Close()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary audio file")
		}
		p.metrics.RecordTempFileRemoved()
	}()

	var dst io.Writer = f
	if limits.MaxAudioBytes > 0 {
		dst = &cappedWriter{w: f, remaining: limits.MaxAudioBytes}
	}

	n, err := p.downloader.Download(ctx, req.FileID, dst)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	p.metrics.RecordAudioReceived(n)
	if err := lc.MarkDownloaded(); err != nil {
		return "", err
	}
	logger.Debug().Int64("bytes", n).Msg("Voice message downloaded")

	sttStart := time.Now()
	text, err := p.transcriber.Transcribe(ctx, path, stt.Options{Language: p.cfg.Language})
	p.metrics.RecordSTT(p.transcriber.Name(), err, time.Since(sttStart).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSTT, err)
	}
	if err := lc.MarkTranscribed(); err != nil {
		return "", err
	}
	return text, nil
}

// finish renders the reply, settles the lifecycle and reports the job.
func (p *Pipeline) finish(ctx context.Context, logger zerolog.Logger, lc *Lifecycle, req Request, out *Outcome, elapsed time.Duration) {
	out.JobID = lc.JobID()

	if out.Err == nil {
		out.Reply = render.Transcript(out.Text, req.Sheet)
		if err := lc.MarkFormatted(); err != nil {
			out.Err = err
		}
	}
	if out.Err != nil {
		lc.Fail()
		out.Text = ""
		out.Reply = render.TranscriptionFailed(out.Detail())
	}
	out.State = lc.State()

	label := outcomeLabel(out.Err)
	p.metrics.RecordVoiceJob(label, elapsed.Seconds())

	if out.OK() {
		logger.Info().
			Dur("elapsed", elapsed).
			Int("chars", len(out.Text)).
			Msg("Voice message transcribed")
	} else {
		logger.Warn().
			Err(out.Err).
			Str("outcome", label).
			Dur("elapsed", elapsed).
			Msg("Voice transcription failed")
	}

	p.publish(ctx, logger, req, *out, elapsed)
}

func (p *Pipeline) publish(ctx context.Context, logger zerolog.Logger, req Request, out Outcome, elapsed time.Duration) {
	p.mu.RLock()
	pub := p.publisher
	p.mu.RUnlock()
	if pub == nil {
		return
	}

	eventType := models.EventVoiceTranscribed
	if !out.OK() {
		eventType = models.EventVoiceFailed
	}
	ev := models.TranscriptEvent{
		EventID:         uuid.NewString(),
		EventType:       eventType,
		JobID:           out.JobID,
		UserID:          req.UserID,
		DurationSeconds: req.DeclaredDuration.Seconds(),
		Provider:        p.Provider(),
		Text:            out.Text,
		Detail:          out.Detail(),
		Timestamp:       time.Now().UnixMilli(),
	}

	// The job may have ended because ctx was cancelled; still record it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := pub.PublishTranscript(pubCtx, strconv.FormatInt(req.UserID, 10), eventType, ev); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish transcript event")
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrNotConfigured):
		return outcomeNotConfigured
	case errors.Is(err, ErrAudioTooLong):
		return outcomeTooLong
	case errors.Is(err, ErrAudioTooLarge):
		return outcomeTooLarge
	case errors.Is(err, ErrInternal):
		return outcomePanic
	case errors.Is(err, ErrSTT):
		return outcomeSTT
	default:
		return outcomeDownload
	}
}

// cappedWriter fails once more than remaining bytes have been written.
type cappedWriter struct {
	w         io.Writer
	remaining int64
}

func (c *cappedWriter) Write(b []byte) (int, error) {
	if int64(len(b)) > c.remaining {
		return 0, ErrAudioTooLarge
	}
	n, err := c.w.Write(b)
	c.remaining -= int64(n)
	return n, err
}
