// Package models defines the data structures for published events.
package models

// Event types.
const (
	EventSheetCreated     = "listing.sheet.created"
	EventSheetReset       = "listing.sheet.reset"
	EventVoiceTranscribed = "listing.voice.transcribed"
	EventVoiceFailed      = "listing.voice.failed"
)

// SheetEvent records a sheet lifecycle change for one conversation.
type SheetEvent struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	UserID    int64  `json:"userId"`
	Filled    int    `json:"filled"`
	Total     int    `json:"total"`
	Timestamp int64  `json:"timestamp"`
}

// TranscriptEvent records the outcome of one voice transcription job.
type TranscriptEvent struct {
	EventID         string  `json:"eventId"`
	EventType       string  `json:"eventType"`
	JobID           string  `json:"jobId"`
	UserID          int64   `json:"userId"`
	DurationSeconds float64 `json:"durationSeconds"`
	Provider        string  `json:"provider,omitempty"`
	Text            string  `json:"text,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}
