// Package mock provides a mock STT adapter for running without cloud credentials.
// It cycles through canned agent utterances, one per call.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"listing-intake-bot/internal/service/stt"
)

// DefaultUtterances are sample property descriptions returned in turn.
var DefaultUtterances = []string{
	"C'est un T3 de 65 mètres carrés au deuxième étage, rue de la Paix à Lyon.",
	"Prix vendeur 280 000 euros, bon état général, DPE classe D.",
	"Il y a un balcon et une cave, pas de parking.",
	"Charges de copropriété 150 euros par mois, taxe foncière 1 200 euros par an.",
	"Le propriétaire s'appelle Jean Dupont, son numéro est le 06 12 34 56 78.",
}

// Adapter implements stt.Transcriber with canned responses.
type Adapter struct {
	mu         sync.Mutex
	utterances []string
	next       int
	calls      int
	// Err, when set, is returned by every call instead of a transcript.
	Err error
}

var _ stt.Transcriber = (*Adapter)(nil)

// New creates a mock adapter over DefaultUtterances.
func New() *Adapter {
	return NewWithUtterances(DefaultUtterances)
}

// NewWithUtterances creates a mock adapter over the given utterances.
func NewWithUtterances(utterances []string) *Adapter {
	return &Adapter{utterances: append([]string(nil), utterances...)}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return "mock" }

// Transcribe returns the next canned utterance. The file at path must exist.
func (a *Adapter) Transcribe(ctx context.Context, path string, opts stt.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("mock stt: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls++
	if a.Err != nil {
		return "", a.Err
	}
	if len(a.utterances) == 0 {
		return "", nil
	}
	text := a.utterances[a.next%len(a.utterances)]
	a.next++
	return text, nil
}

// Calls returns how many times Transcribe was invoked.
func (a *Adapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
