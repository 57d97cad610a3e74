// Package archive implements the archive sink external collaborator
// (spec.md §6): a callback invoked whenever a store entry transitions to
// archived. Grounded on the teacher's poll.NewSet consumer pattern,
// where a background goroutine drains a channel of completed items
// rather than blocking the producer.
package archive

import (
	"sync"

	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/store"
)

// Sink receives newly archived entries.
type Sink interface {
	OnArchive(entry *store.Entry)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(entry *store.Entry)

// OnArchive calls f.
func (f SinkFunc) OnArchive(entry *store.Entry) { f(entry) }

// Memory is an in-memory Sink retaining every archived entry it has
// seen, in archival order. It is the default sink used by tests and by
// peer.Peer when no external sink is configured.
type Memory struct {
	mu      sync.RWMutex
	entries []*store.Entry
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// OnArchive appends entry to the retained list.
func (m *Memory) OnArchive(entry *store.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns a snapshot of all archived entries seen so far, in
// archival order.
func (m *Memory) Entries() []*store.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*store.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of archived entries seen so far.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Pump drains st's archive export channel into sink until the channel is
// closed or stop is closed. It runs as a dedicated goroutine so the
// cooperative event loop never blocks delivering to a slow sink.
func Pump(st *store.Store, sink Sink, stop <-chan struct{}, logger log.Logger) {
	if logger == nil {
		logger = log.NewNoOp()
	}
	ch := st.ArchivedExport()
	for {
		select {
		case entry, ok := <-ch:
			if !ok {
				return
			}
			sink.OnArchive(entry)
			logger.Debug("archived entry delivered to sink", "name", entry.Name.String())
		case <-stop:
			return
		}
	}
}
