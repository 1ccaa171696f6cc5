// Package render turns sheets and pipeline results into chat replies.
//
// Every function is a pure function of its inputs. Replies that embed
// user-provided values are escaped for Telegram legacy Markdown.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"listing-intake-bot/internal/schema"
	"listing-intake-bot/internal/sheet"
)

// Welcome is the /start reply.
func Welcome() string { return welcomeMessage }

// ResetConfirmation is the /reset reply.
func ResetConfirmation() string { return resetMessage }

// UnknownCommand is the reply to an unsupported command.
func UnknownCommand() string { return unknownCommand }

// TranscriptionStarted is the status message shown while a voice message is processed.
func TranscriptionStarted() string { return transcribingMessage }

// Progress returns "<filled>/<total> fields filled".
func Progress(s sheet.Sheet) string {
	return fmt.Sprintf("%d/%d fields filled", s.Filled(), s.Total())
}

// FullSheet renders every set field grouped by category, or the empty-sheet
// message when nothing is set. Categories without a set field are omitted.
func FullSheet(s sheet.Sheet) string {
	if s.IsEmpty() {
		return emptySheetMessage
	}

	lines := []string{sheetTitle, "Progress: " + Progress(s)}
	for _, cat := range schema.Categories() {
		var catLines []string
		for _, key := range cat.Fields {
			v, err := s.Get(key)
			if err != nil || !v.IsSet() {
				continue
			}
			catLines = append(catLines, fmt.Sprintf("  ✅ %s: %s", schema.Humanize(key), escape(v.String())))
		}
		if len(catLines) == 0 {
			continue
		}
		lines = append(lines, "", categoryHeader(cat.Name))
		lines = append(lines, catLines...)
	}
	return strings.Join(lines, "\n")
}

// Missing lists the labels of every unset field in schema order, or the
// completion message when nothing is missing.
func Missing(s sheet.Sheet) string {
	var labels []string
	s.Each(func(key string, v sheet.Value) {
		if !v.IsSet() {
			labels = append(labels, schema.Humanize(key))
		}
	})
	if len(labels) == 0 {
		return completeMessage
	}

	var b strings.Builder
	b.WriteString(missingTitle)
	b.WriteString("\n\n")
	for i, label := range labels {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  • ")
		b.WriteString(label)
	}
	fmt.Fprintf(&b, "\n\n_(%d fields remaining)_", len(labels))
	return b.String()
}

// Acknowledgement confirms receipt of a text message and reports progress.
func Acknowledgement(s sheet.Sheet, text string) string {
	return fmt.Sprintf("✅ Got it! I've recorded your message.\n\n"+
		"📋 Sheet: %s\n\n"+
		"Your message: « %s »", Progress(s), escape(preview(text)))
}

// Transcript reports a successful transcription together with sheet progress.
// The transcript is included verbatim; send it without a parse mode.
func Transcript(text string, s sheet.Sheet) string {
	return fmt.Sprintf("🎙️ Transcript:\n« %s »\n\n📋 Sheet: %s", text, Progress(s))
}

// TranscriptionFailed reports a failed transcription.
func TranscriptionFailed(detail string) string {
	return fmt.Sprintf("%s Transcription failed: %s\n\nYou can send the voice message again.", failureMarker, detail)
}

// Undelivered tells the user that a voice result was produced but could not be sent.
func Undelivered() string { return undeliveredMessage }

func categoryHeader(name string) string {
	if icon, ok := categoryIcons[name]; ok {
		return icon + " " + name
	}
	return name
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= ackPreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:ackPreviewRunes]) + "..."
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
