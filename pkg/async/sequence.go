package async

import "sync"

// Sequencer enforces latest-wins ordering for superseded background reads:
// each read is issued a monotonically increasing token, and only the result
// of the most recently issued read may be applied to visible state. Results
// carrying stale tokens are simply dropped; there is no cancellation of the
// in-flight work itself.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Issue hands out the next token. Call it when the read is started.
func (s *Sequencer) Issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply reports whether a result carrying the token may be applied: the
// token must be the newest issued and newer than anything already applied.
// A true return records the application.
func (s *Sequencer) Apply(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.issued || token <= s.applied {
		return false
	}
	s.applied = token
	return true
}
