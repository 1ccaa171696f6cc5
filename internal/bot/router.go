// Package bot routes Telegram updates to the sheet store, the formatter and
// the voice pipeline.
package bot

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"listing-intake-bot/internal/observability/logging"
	"listing-intake-bot/internal/observability/metrics"
	"listing-intake-bot/internal/render"
	"listing-intake-bot/internal/service/voice"
	"listing-intake-bot/internal/sheet"
)

// Update kinds used as metric labels.
const (
	kindCommand = "command"
	kindText    = "text"
	kindVoice   = "voice"
	kindOther   = "other"
)

// maxMessageRunes keeps each outgoing text under Telegram's 4096 character limit.
const maxMessageRunes = 3500

// Messenger is the subset of *tgbotapi.BotAPI the router talks to.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// VoiceTranscriber runs voice jobs. *voice.Pipeline implements it.
type VoiceTranscriber interface {
	Transcribe(ctx context.Context, req voice.Request) voice.Outcome
}

// Router dispatches updates. Each update is handled in its own goroutine;
// a failure in one never affects another.
type Router struct {
	api     Messenger
	store   *sheet.Store
	voice   VoiceTranscriber
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

// NewRouter creates a router. A nil metrics uses the default registry.
func NewRouter(api Messenger, store *sheet.Store, transcriber VoiceTranscriber, m *metrics.Metrics) *Router {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Router{
		api:     api,
		store:   store,
		voice:   transcriber,
		metrics: m,
	}
}

// Run consumes updates until ctx is cancelled or the channel is closed,
// then waits for in-flight handlers. Cancelling ctx stops intake only: a
// dispatched handler runs to completion.
func (r *Router) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer r.wg.Wait()

	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.HandleUpdate(handlerCtx, update)
			}()
		}
	}
}

// HandleUpdate processes a single update synchronously. Panics are recovered
// and counted.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	kind := kindOf(msg)
	start := time.Now()
	r.metrics.RecordUpdateStart(kind)

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordPanic()
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Int("updateId", update.UpdateID).
				Int64("userId", msg.From.ID).
				Msg("Update handler panicked")
		}
		r.metrics.RecordUpdateEnd(kind, time.Since(start).Seconds())
	}()

	logger := logging.WithUser("router", msg.From.ID)

	switch kind {
	case kindCommand:
		r.handleCommand(logger, msg)
	case kindVoice:
		r.handleVoice(ctx, logger, msg)
	case kindText:
		r.handleText(logger, msg)
	default:
		logger.Debug().Int("messageId", msg.MessageID).Msg("Ignoring unsupported message")
	}
}

func kindOf(msg *tgbotapi.Message) string {
	switch {
	case msg.IsCommand():
		return kindCommand
	case msg.Voice != nil:
		return kindVoice
	case msg.Text != "":
		return kindText
	default:
		return kindOther
	}
}

func (r *Router) handleCommand(logger zerolog.Logger, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	command := msg.Command()

	logger.Info().Str("command", command).Msg("Command received")

	switch command {
	case cmdStart:
		r.metrics.RecordCommand(command)
		r.store.Reset(userID)
		r.reply(logger, chatID, render.Welcome(), "")
	case cmdSheet:
		r.metrics.RecordCommand(command)
		s, ok := r.store.Get(userID)
		if !ok {
			s = sheet.New()
		}
		r.reply(logger, chatID, render.FullSheet(s), tgbotapi.ModeMarkdown)
	case cmdMissing:
		r.metrics.RecordCommand(command)
		s, ok := r.store.Get(userID)
		if !ok {
			s = sheet.New()
		}
		r.reply(logger, chatID, render.Missing(s), tgbotapi.ModeMarkdown)
	case cmdReset:
		r.metrics.RecordCommand(command)
		r.store.Reset(userID)
		r.reply(logger, chatID, render.ResetConfirmation(), "")
	default:
		r.metrics.RecordCommand("unknown")
		r.reply(logger, chatID, render.UnknownCommand(), "")
	}
}

func (r *Router) handleText(logger zerolog.Logger, msg *tgbotapi.Message) {
	s, created := r.store.GetOrCreate(msg.From.ID)
	if created {
		logger.Info().Msg("Sheet created")
	}
	logger.Debug().Int("chars", len(msg.Text)).Msg("Text message received")

	r.reply(logger, msg.Chat.ID, render.Acknowledgement(s, msg.Text), tgbotapi.ModeMarkdown)
}

func (r *Router) handleVoice(ctx context.Context, logger zerolog.Logger, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	s, created := r.store.GetOrCreate(userID)
	if created {
		logger.Info().Msg("Sheet created")
	}

	logger.Info().
		Int("durationSeconds", msg.Voice.Duration).
		Msg("Voice message received")

	status, statusErr := r.reply(logger, chatID, render.TranscriptionStarted(), "")

	out := r.voice.Transcribe(ctx, voice.Request{
		UserID:           userID,
		FileID:           msg.Voice.FileID,
		DeclaredDuration: time.Duration(msg.Voice.Duration) * time.Second,
		Sheet:            s,
	})

	// Replace the status message in place; fall back to new messages when
	// the status message was never delivered or cannot be edited.
	chunks := splitMessage(out.Reply, maxMessageRunes)
	if statusErr == nil {
		edit := tgbotapi.NewEditMessageText(chatID, status.MessageID, chunks[0])
		if _, err := r.api.Send(edit); err == nil {
			chunks = chunks[1:]
		} else {
			logger.Warn().Err(err).Str("jobId", out.JobID).Msg("Failed to edit status message")
		}
	}
	for _, chunk := range chunks {
		if _, err := r.send(logger, chatID, chunk, ""); err != nil {
			r.send(logger, chatID, render.Undelivered(), "")
			return
		}
	}
}

// reply sends text, split into as many messages as needed, and returns the
// first message sent.
func (r *Router) reply(logger zerolog.Logger, chatID int64, text, parseMode string) (tgbotapi.Message, error) {
	var first tgbotapi.Message
	for i, chunk := range splitMessage(text, maxMessageRunes) {
		sent, err := r.send(logger, chatID, chunk, parseMode)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = sent
		}
	}
	return first, nil
}

func (r *Router) send(logger zerolog.Logger, chatID int64, text, parseMode string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode

	sent, err := r.api.Send(msg)
	if err != nil {
		r.metrics.RecordReplyFailed()
		logger.Warn().Err(err).Int64("chatId", chatID).Msg("Failed to send reply")
	}
	return sent, err
}

// splitMessage cuts text into chunks of at most max runes, preferring a line
// break and then a space in the second half of each window. It always
// returns at least one chunk.
func splitMessage(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	for len(runes) > max {
		cut := max
		if i := lastRune(runes[:max], '\n'); i > max/2 {
			cut = i + 1
		} else if i := lastRune(runes[:max], ' '); i > max/2 {
			cut = i + 1
		}
		if chunk := strings.TrimRight(string(runes[:cut]), " \n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	if len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func lastRune(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
