package gossip

import (
	"sync"
	"time"
)

const (
	fetchBaseBackoff = 500 * time.Millisecond
	fetchMaxBackoff  = 30 * time.Second
	fetchMaxAttempts = 8
)

// pendingFetch tracks one outstanding FETCH interest's retry schedule.
type pendingFetch struct {
	attempts int
	nextTry  time.Time
}

// fetchTracker deduplicates outstanding FETCH interests and applies an
// exponential backoff re-request policy. spec.md §5 notes missing
// records "persist in missing until either arrival or a peer restart"
// and explicitly leaves a retry policy optional; this is that policy,
// grounded on the original source's timer-driven re-request loop
// (original_source/peer.cpp's periodic missing-record sweep).
type fetchTracker struct {
	mu      sync.Mutex
	pending map[string]*pendingFetch
}

func newFetchTracker() *fetchTracker {
	return &fetchTracker{pending: make(map[string]*pendingFetch)}
}

// begin records a new outstanding request for key and reports whether
// the caller should actually issue it now (false if one is already
// outstanding).
func (f *fetchTracker) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.pending[key]; exists {
		return false
	}
	f.pending[key] = &pendingFetch{
		attempts: 1,
		nextTry:  time.Now().Add(fetchBaseBackoff),
	}
	return true
}

// done clears key's outstanding request, normally called once its data
// arrives.
func (f *fetchTracker) done(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
}

// due returns the keys whose backoff has elapsed and advances their
// schedule. Keys that have exhausted fetchMaxAttempts are left in place
// (they keep the record in spec.md's "missing" set) but are no longer
// retried automatically; a transport-level NOTIF or peer restart is then
// required to make further progress, matching spec.md §5's guarantee
// that persistence, not eventual delivery, is all the core promises.
func (f *fetchTracker) due() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	var ready []string
	for key, p := range f.pending {
		if p.attempts >= fetchMaxAttempts {
			continue
		}
		if now.Before(p.nextTry) {
			continue
		}
		p.attempts++
		backoff := fetchBaseBackoff << uint(p.attempts)
		if backoff > fetchMaxBackoff || backoff <= 0 {
			backoff = fetchMaxBackoff
		}
		p.nextTry = now.Add(backoff)
		ready = append(ready, key)
	}
	return ready
}
