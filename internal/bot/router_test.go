package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-intake-bot/internal/observability/metrics"
	"listing-intake-bot/internal/render"
	"listing-intake-bot/internal/schema"
	"listing-intake-bot/internal/service/voice"
	"listing-intake-bot/internal/sheet"
)

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	nextID    int
	sendErr   error
	editErr   error
	panicSend bool
	maxRunes  int // reject texts longer than this, like Telegram does; 0 disables
}

func chattableText(c tgbotapi.Chattable) string {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	}
	return ""
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.panicSend {
		panic("send exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && f.editErr != nil {
		return tgbotapi.Message{}, f.editErr
	}
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if f.maxRunes > 0 && utf8.RuneCountInString(chattableText(c)) > f.maxRunes {
		return tgbotapi.Message{}, errors.New("Bad Request: message is too long")
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeMessenger) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeMessenger) messages() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.sent...)
}

type fakeVoice struct {
	mu       sync.Mutex
	outcome  voice.Outcome
	requests []voice.Request
}

func (f *fakeVoice) Transcribe(ctx context.Context, req voice.Request) voice.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.outcome
}

func newTestRouter(api *fakeMessenger, v VoiceTranscriber) (*Router, *sheet.Store, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	store := sheet.NewStore(nil)
	return NewRouter(api, store, v, m), store, m
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}}
}

func voiceUpdate(userID int64, fileID string, seconds int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: userID},
		Voice:     &tgbotapi.Voice{FileID: fileID, Duration: seconds},
	}}
}

func lastText(t *testing.T, api *fakeMessenger) tgbotapi.MessageConfig {
	t.Helper()
	msgs := api.messages()
	require.NotEmpty(t, msgs)
	msg, ok := msgs[len(msgs)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last message is %T", msgs[len(msgs)-1])
	return msg
}

func TestRouter_Start(t *testing.T) {
	api := &fakeMessenger{}
	r, store, m := newTestRouter(api, &fakeVoice{})

	_, err := store.Update(1, func(s *sheet.Sheet) error {
		return s.Set("prix", sheet.Integer(280000))
	})
	require.NoError(t, err)

	r.HandleUpdate(context.Background(), commandUpdate(1, "/start"))

	msg := lastText(t, api)
	assert.Contains(t, msg.Text, "/fiche")
	assert.Equal(t, int64(1), msg.ChatID)

	s, ok := store.Get(1)
	require.True(t, ok)
	assert.True(t, s.IsEmpty(), "start must reset the sheet")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("start")))
}

func TestRouter_Sheet(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), commandUpdate(2, "/fiche"))
	assert.Contains(t, lastText(t, api).Text, "empty")
	_, ok := store.Get(2)
	assert.False(t, ok, "viewing must not create a sheet")

	_, err := store.Update(2, func(s *sheet.Sheet) error {
		return s.Set("prix", sheet.Integer(280000))
	})
	require.NoError(t, err)

	r.HandleUpdate(context.Background(), commandUpdate(2, "/fiche"))
	msg := lastText(t, api)
	assert.Contains(t, msg.Text, "Prix: 280000")
	assert.Contains(t, msg.Text, "1/40 fields filled")
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
}

func TestRouter_Missing_UnknownUser(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), commandUpdate(3, "/manque"))

	msg := lastText(t, api)
	assert.Contains(t, msg.Text, "(40 fields remaining)")
	assert.Contains(t, msg.Text, "Type bien")
	_, ok := store.Get(3)
	assert.False(t, ok)
}

func TestRouter_Reset(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})

	_, err := store.Update(4, func(s *sheet.Sheet) error {
		return s.Set("ville", sheet.Text("Lyon"))
	})
	require.NoError(t, err)

	r.HandleUpdate(context.Background(), commandUpdate(4, "/reset"))

	assert.Contains(t, lastText(t, api).Text, "reset")
	s, _ := store.Get(4)
	assert.Equal(t, 0, s.Filled())
	assert.Equal(t, schema.FieldCount, s.Total())
}

func TestRouter_UnknownCommand(t *testing.T) {
	api := &fakeMessenger{}
	r, store, m := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), commandUpdate(5, "/help"))

	assert.Contains(t, lastText(t, api).Text, "/manque")
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("unknown")))
}

func TestRouter_CommandWithBotSuffix(t *testing.T) {
	api := &fakeMessenger{}
	r, _, _ := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), commandUpdate(6, "/reset@listing_bot"))

	assert.Contains(t, lastText(t, api).Text, "reset")
}

func TestRouter_Text(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), textUpdate(7, "T3 de 65m2 à Lyon"))

	msg := lastText(t, api)
	assert.Contains(t, msg.Text, "0/40 fields filled")
	assert.Contains(t, msg.Text, "T3 de 65m2 à Lyon")
	s, ok := store.Get(7)
	require.True(t, ok, "text must create the sheet")
	assert.True(t, s.IsEmpty(), "text must not write fields")
}

func TestRouter_Voice_EditsStatusMessage(t *testing.T) {
	api := &fakeMessenger{}
	v := &fakeVoice{outcome: voice.Outcome{JobID: "8-voice-1", Text: "bonjour", Reply: "🎙️ Transcript: bonjour", State: voice.StateFormatted}}
	r, store, _ := newTestRouter(api, v)

	r.HandleUpdate(context.Background(), voiceUpdate(8, "file-8", 12))

	require.Len(t, v.requests, 1)
	req := v.requests[0]
	assert.Equal(t, int64(8), req.UserID)
	assert.Equal(t, "file-8", req.FileID)
	assert.Equal(t, 12*time.Second, req.DeclaredDuration)

	msgs := api.messages()
	require.Len(t, msgs, 2)
	status, ok := msgs[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, status.Text, "Transcribing")

	edit, ok := msgs[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok, "expected an edit, got %T", msgs[1])
	assert.Equal(t, 1, edit.MessageID)
	assert.Equal(t, "🎙️ Transcript: bonjour", edit.Text)

	_, exists := store.Get(8)
	assert.True(t, exists)
}

func TestRouter_Voice_FallsBackWhenEditFails(t *testing.T) {
	api := &fakeMessenger{editErr: errors.New("message can't be edited")}
	v := &fakeVoice{outcome: voice.Outcome{Err: voice.ErrNotConfigured, Reply: "❌ Transcription failed"}}
	r, _, _ := newTestRouter(api, v)

	r.HandleUpdate(context.Background(), voiceUpdate(9, "file-9", 3))

	assert.Equal(t, "❌ Transcription failed", lastText(t, api).Text)
}

func TestRouter_ReplyFailureIsCounted(t *testing.T) {
	api := &fakeMessenger{sendErr: errors.New("forbidden: bot was blocked by the user")}
	r, _, m := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), textUpdate(10, "hello"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesFailed))
}

func TestRouter_PanicIsRecovered(t *testing.T) {
	api := &fakeMessenger{panicSend: true}
	r, _, m := newTestRouter(api, &fakeVoice{})

	assert.NotPanics(t, func() {
		r.HandleUpdate(context.Background(), textUpdate(11, "hello"))
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlerPanics))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.UpdatesActive))
}

func TestRouter_IgnoresNonMessageUpdates(t *testing.T) {
	api := &fakeMessenger{}
	r, _, _ := newTestRouter(api, &fakeVoice{})

	r.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1})
	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})
	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
	}})

	assert.Empty(t, api.messages())
}

func TestRouter_Run_HandlesEveryUpdate(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})

	updates := make(chan tgbotapi.Update, 20)
	for i := int64(1); i <= 20; i++ {
		updates <- textUpdate(i, "hello")
	}
	close(updates)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the channel closed")
	}

	assert.Len(t, api.messages(), 20)
	assert.Equal(t, 20, store.Len())
}

func TestRouter_Run_StopsOnCancel(t *testing.T) {
	r, _, _ := newTestRouter(&fakeMessenger{}, &fakeVoice{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, make(chan tgbotapi.Update))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRouter_RegisterCommands(t *testing.T) {
	api := &fakeMessenger{}
	r, _, _ := newTestRouter(api, &fakeVoice{})

	require.NoError(t, r.RegisterCommands())
	require.Len(t, api.requests, 1)

	cfg, ok := api.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok)
	var names []string
	for _, c := range cfg.Commands {
		names = append(names, c.Command)
	}
	assert.Equal(t, []string{"start", "fiche", "manque", "reset"}, names)
}

func TestRouter_StartSheetResetScenario(t *testing.T) {
	api := &fakeMessenger{}
	r, store, _ := newTestRouter(api, &fakeVoice{})
	ctx := context.Background()

	r.HandleUpdate(ctx, commandUpdate(12, "/start"))
	r.HandleUpdate(ctx, commandUpdate(12, "/fiche"))
	assert.Contains(t, lastText(t, api).Text, "The sheet is empty")

	_, err := store.Update(12, func(s *sheet.Sheet) error {
		return s.Set("ville", sheet.Text("Lyon"))
	})
	require.NoError(t, err)

	r.HandleUpdate(ctx, commandUpdate(12, "/fiche"))
	full := lastText(t, api).Text
	assert.Contains(t, full, "1/40 fields filled")
	assert.Contains(t, full, "🏠 General\n  ✅ Ville: Lyon")

	r.HandleUpdate(ctx, commandUpdate(12, "/reset"))
	r.HandleUpdate(ctx, textUpdate(12, "next listing"))
	assert.Contains(t, lastText(t, api).Text, "0/40 fields filled")
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		max    int
		chunks int
	}{
		{"short", "bonjour", 10, 1},
		{"exact", "0123456789", 10, 1},
		{"words", strings.Repeat("mot ", 30), 20, 6},
		{"no break", strings.Repeat("x", 25), 10, 3},
		{"multibyte", strings.Repeat("é", 25), 10, 3},
		{"empty", "", 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.text, tt.max)
			assert.Len(t, chunks, tt.chunks)
			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.max)
			}
		})
	}
}

func TestSplitMessage_KeepsEveryWord(t *testing.T) {
	text := strings.Repeat("la cuisine est équipée ", 400)
	chunks := splitMessage(text, maxMessageRunes)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestRouter_Voice_LongTranscriptIsSplit(t *testing.T) {
	api := &fakeMessenger{maxRunes: 4096}
	transcript := strings.Repeat("Le séjour fait trente mètres carrés avec parquet. ", 110)
	reply := "🎙️ Transcript:\n« " + transcript + " »"
	require.Greater(t, utf8.RuneCountInString(reply), 4096)

	v := &fakeVoice{outcome: voice.Outcome{JobID: "12-voice-1", Text: transcript, Reply: reply, State: voice.StateFormatted}}
	r, _, m := newTestRouter(api, v)

	r.HandleUpdate(context.Background(), voiceUpdate(12, "file-12", 300))

	msgs := api.messages()
	require.GreaterOrEqual(t, len(msgs), 3, "status, edit and at least one continuation")
	edit, ok := msgs[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok, "expected an edit, got %T", msgs[1])
	assert.Equal(t, 1, edit.MessageID)

	var delivered []string
	for _, c := range msgs[1:] {
		delivered = append(delivered, chattableText(c))
	}
	assert.Equal(t, strings.Fields(reply), strings.Fields(strings.Join(delivered, " ")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RepliesFailed))
}

func TestRouter_Voice_UndeliverableResultIsReported(t *testing.T) {
	api := &fakeMessenger{maxRunes: 80}
	v := &fakeVoice{outcome: voice.Outcome{
		JobID: "13-voice-1",
		Reply: strings.Repeat("x", 100),
		State: voice.StateFormatted,
	}}
	r, _, m := newTestRouter(api, v)

	r.HandleUpdate(context.Background(), voiceUpdate(13, "file-13", 5))

	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, chattableText(msgs[0]), "Transcribing")
	assert.Equal(t, render.Undelivered(), chattableText(msgs[1]))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepliesFailed))
}

type slowVoice struct {
	release chan struct{}
	started chan struct{}
	ctxErr  chan error
}

func (s *slowVoice) Transcribe(ctx context.Context, req voice.Request) voice.Outcome {
	close(s.started)
	<-s.release
	s.ctxErr <- ctx.Err()
	return voice.Outcome{JobID: "14-voice-1", Text: "bonjour", Reply: "🎙️ bonjour", State: voice.StateFormatted}
}

func TestRouter_Run_InFlightVoiceSurvivesCancel(t *testing.T) {
	api := &fakeMessenger{}
	v := &slowVoice{release: make(chan struct{}), started: make(chan struct{}), ctxErr: make(chan error, 1)}
	r, _, _ := newTestRouter(api, v)

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tgbotapi.Update, 1)
	updates <- voiceUpdate(14, "file-14", 4)

	done := make(chan struct{})
	go func() {
		r.Run(ctx, updates)
		close(done)
	}()

	select {
	case <-v.started:
	case <-time.After(5 * time.Second):
		t.Fatal("voice job was not dispatched")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned before the in-flight job finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(v.release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the job finished")
	}

	assert.NoError(t, <-v.ctxErr)
	edit, ok := api.messages()[1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, "🎙️ bonjour", edit.Text)
}
