package voice

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a voice job.
type State int

const (
	// StateReceived - Voice message accepted, nothing fetched yet.
	StateReceived State = iota
	// StateDownloaded - Audio written to a temporary file.
	StateDownloaded
	// StateTranscribed - Speech-to-text returned a transcript.
	StateTranscribed
	// StateFormatted - Transcript rendered for the user. Terminal.
	StateFormatted
	// StateFailed - Job abandoned; the user gets a failure notice. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateDownloaded:
		return "DOWNLOADED"
	case StateTranscribed:
		return "TRANSCRIBED"
	case StateFormatted:
		return "FORMATTED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (FORMATTED or FAILED).
func (s State) IsTerminal() bool {
	return s == StateFormatted || s == StateFailed
}

// ErrInvalidTransition is returned when a job is moved out of order.
var ErrInvalidTransition = errors.New("invalid voice job transition")

// Lifecycle manages the state machine for a single voice job.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	RECEIVED → DOWNLOADED → TRANSCRIBED → FORMATTED
//	    │           │            │
//	    └───────────┴────────────┴── Fail() ──→ FAILED
//
// Terminal states are sticky: every further transition is rejected.
type Lifecycle struct {
	mu    sync.RWMutex
	jobID string
	state State
}

// NewLifecycle creates a new job lifecycle in RECEIVED state.
func NewLifecycle(jobID string) *Lifecycle {
	return &Lifecycle{
		jobID: jobID,
		state: StateReceived,
	}
}

// JobID returns the job ID.
func (l *Lifecycle) JobID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.jobID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// MarkDownloaded moves RECEIVED → DOWNLOADED.
func (l *Lifecycle) MarkDownloaded() error {
	return l.advance(StateReceived, StateDownloaded)
}

// MarkTranscribed moves DOWNLOADED → TRANSCRIBED.
func (l *Lifecycle) MarkTranscribed() error {
	return l.advance(StateDownloaded, StateTranscribed)
}

// MarkFormatted moves TRANSCRIBED → FORMATTED.
func (l *Lifecycle) MarkFormatted() error {
	return l.advance(StateTranscribed, StateFormatted)
}

func (l *Lifecycle) advance(from, to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != from {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, l.state, to)
	}
	l.state = to
	return nil
}

// Fail transitions the job to FAILED.
// Returns true if the job was failed, false if already in a terminal state.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false // Already in terminal state
	}
	l.state = StateFailed
	return true
}
