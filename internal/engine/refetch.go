package engine

import (
	"sync"
	"time"
)

// RefetchScheduler coalesces reload requests from rapid UI-driven
// selection changes. A trigger arriving outside the burst window runs
// immediately; a trigger inside the window is deferred by a short delay,
// and a newer deferred trigger replaces the pending one (last request
// wins). A burst of taps therefore costs one fetch, a single tap costs
// zero added latency.
type RefetchScheduler struct {
	window time.Duration
	delay  time.Duration
	clock  Clock
	run    func(Key)

	mu       sync.Mutex
	last     time.Time
	timer    *time.Timer
	pending  Key
	inflight map[Key]bool
}

// NewRefetchScheduler creates a scheduler that invokes run for each
// executed fetch. run is called on its own goroutine.
func NewRefetchScheduler(window, delay time.Duration, clock Clock, run func(Key)) *RefetchScheduler {
	return &RefetchScheduler{
		window:   window,
		delay:    delay,
		clock:    clock,
		run:      run,
		inflight: make(map[Key]bool),
	}
}

// Trigger requests a (possibly coalesced) fetch for the key.
func (s *RefetchScheduler) Trigger(key Key) {
	s.mu.Lock()
	now := s.clock.Now()
	burst := !s.last.IsZero() && now.Sub(s.last) < s.window
	s.last = now

	if !burst {
		s.mu.Unlock()
		s.execute(key)
		return
	}

	s.pending = key
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.firePending)
	s.mu.Unlock()
}

func (s *RefetchScheduler) firePending() {
	s.mu.Lock()
	key := s.pending
	s.timer = nil
	s.mu.Unlock()
	s.execute(key)
}

func (s *RefetchScheduler) execute(key Key) {
	if !s.Begin(key) {
		// A fetch for this key is already outstanding. Skip; the next
		// state-driven trigger catches up.
		return
	}
	go func() {
		defer s.End(key)
		s.run(key)
	}()
}

// Begin marks a fetch for the key as in flight. It returns false if one
// already is, in which case the caller must not fetch. No two fetches for
// the same key ever run concurrently.
func (s *RefetchScheduler) Begin(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	return true
}

// End clears the in-flight mark set by Begin.
func (s *RefetchScheduler) End(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}
