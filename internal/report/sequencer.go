package report

import "sync"

// Sequencer publishes asynchronously generated reports in logical order.
// A result tagged with a sequence number lower than or equal to the last
// accepted one is stale and gets dropped, whatever order the generations
// finish in.
type Sequencer struct {
	mu      sync.Mutex
	started bool
	last    uint64
	text    string
}

// Offer records text as the result of request seq. It reports whether the
// result was accepted.
func (s *Sequencer) Offer(seq uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && seq <= s.last {
		return false
	}
	s.started = true
	s.last = seq
	s.text = text
	return true
}

// Latest returns the most recent accepted result and its sequence number.
func (s *Sequencer) Latest() (uint64, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.text, s.started
}
