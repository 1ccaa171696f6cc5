package sheet

import (
	"sync"
)

// Observer is notified after sheets are created or reset.
// Callbacks run outside the store's locks.
type Observer interface {
	OnCreate(userID int64, s Sheet)
	OnReset(userID int64, s Sheet)
}

// Store maps conversation identities to sheets.
//
// The map is guarded by one lock; every identity additionally owns a mutex so
// that writes to a given sheet are serialized (single writer per identity)
// while different users never contend beyond the map lookup. Every method
// returns copies, never references into the store.
type Store struct {
	mu       sync.RWMutex
	entries  map[int64]*entry
	observer Observer
}

type entry struct {
	mu    sync.Mutex
	sheet Sheet
}

// NewStore creates an empty store. observer may be nil.
func NewStore(observer Observer) *Store {
	return &Store{
		entries:  make(map[int64]*entry),
		observer: observer,
	}
}

// GetOrCreate returns the sheet for userID, creating an empty one on first contact.
// The second result reports whether the sheet was created by this call.
func (s *Store) GetOrCreate(userID int64) (Sheet, bool) {
	e, created := s.entryFor(userID)

	e.mu.Lock()
	snapshot := e.sheet
	e.mu.Unlock()

	if created && s.observer != nil {
		s.observer.OnCreate(userID, snapshot)
	}
	return snapshot, created
}

// Reset replaces the sheet for userID with an empty one, discarding all values.
func (s *Store) Reset(userID int64) Sheet {
	e, _ := s.entryFor(userID)

	e.mu.Lock()
	e.sheet = New()
	snapshot := e.sheet
	e.mu.Unlock()

	if s.observer != nil {
		s.observer.OnReset(userID, snapshot)
	}
	return snapshot
}

// Get returns the sheet for userID without creating one.
func (s *Store) Get(userID int64) (Sheet, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Sheet{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sheet, true
}

// Update applies fn to the sheet for userID while holding that identity's
// write lock, creating the sheet if needed. If fn returns an error the sheet
// is left unchanged.
func (s *Store) Update(userID int64, fn func(*Sheet) error) (Sheet, error) {
	e, created := s.entryFor(userID)
	if created && s.observer != nil {
		s.observer.OnCreate(userID, New())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.sheet
	if err := fn(&working); err != nil {
		return e.sheet, err
	}
	e.sheet = working
	return working, nil
}

// Len returns the number of identities with a sheet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) entryFor(userID int64) (*entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e, false
	}
	e = &entry{sheet: New()}
	s.entries[userID] = e
	return e, true
}
