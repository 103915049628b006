package booking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"gear_rental_backend/pkg/async"
)

// ErrDraftNotFound is returned for unknown or already-discarded draft ids.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore holds live drafts keyed by an opaque session id and applies
// reducer transitions atomically from the previous stored state. Two rapid
// deltas issued before any read-back both apply in sequence rather than one
// clobbering the other, because transitions run under the store lock against
// the stored draft, never against a possibly-stale caller copy.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	guard  *async.KeyGuard
}

// NewDraftStore creates a store whose gesture guard uses the given window
// (non-positive means the async default).
func NewDraftStore(guardWindow time.Duration) *DraftStore {
	return &DraftStore{
		drafts: make(map[uuid.UUID]Draft),
		guard:  async.NewKeyGuard(guardWindow),
	}
}

// Put stores a draft under a fresh session id.
func (s *DraftStore) Put(d Draft) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.drafts[id] = d
	return id
}

// Get returns the current state of a draft.
func (s *DraftStore) Get(id uuid.UUID) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return d, nil
}

// Apply runs a functional transition against the stored draft and stores the
// result, all under the store lock. When gestureKey is non-empty the
// per-action-key guard deduplicates repeats of the same key within its
// window: a suppressed repeat returns the unchanged draft with applied=false.
func (s *DraftStore) Apply(id uuid.UUID, gestureKey string, fn func(Draft) Draft) (Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, false, ErrDraftNotFound
	}
	if gestureKey != "" && !s.guard.Allow(id.String()+"|"+gestureKey) {
		return d, false, nil
	}
	next := fn(d)
	s.drafts[id] = next
	return next, true, nil
}

// Delete discards a draft. Discarding has no persistence-side effect;
// nothing was written yet.
func (s *DraftStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}
