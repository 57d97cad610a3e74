package engine

import (
	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/record"
)

// propagate walks ancestors of rec breadth-first via an explicit work
// queue (not stack recursion, per spec.md §9's note on deep ancestor
// chains) and adds rec's producer to each visited entry's approver set
// exactly once, stopping down any subpath where the producer is already
// present or the entry has just become archived.
func (e *Engine) propagate(rec *record.Record) {
	visited := xset.New[string](len(rec.Preceding))
	queue := append([]record.Name{}, rec.Preceding...)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		key := name.String()
		if visited.Contains(key) {
			continue
		}
		visited.Add(key)

		entry, ok := e.store.Get(name)
		if !ok {
			// Ancestor presence was already checked for rec itself, but
			// an ancestor-of-an-ancestor is not guaranteed to exist if
			// the DAG is malformed upstream; skip defensively.
			continue
		}
		if entry.Archived {
			continue
		}
		if entry.Approvers.Contains(rec.ProducerIdentity) {
			continue
		}

		_, justArchived, err := e.store.IncrementWeight(name, rec.ProducerIdentity)
		if err != nil {
			continue
		}
		if justArchived {
			e.log.Info("archived record", "name", name.String())
			continue
		}

		queue = append(queue, entry.Preceding...)
	}
}

// deferRecord holds wire bytes pending ancestor completion, keyed by
// name so repeated delivery of the same bytes while still deferred is a
// no-op.
func (e *Engine) deferRecord(key string, wire []byte) {
	if _, exists := e.deferredWire[key]; exists {
		return
	}
	e.deferredWire[key] = wire
	e.deferredOrder = append(e.deferredOrder, key)
}

// scanDeferredLocked re-evaluates the deferred set from newest to
// oldest, admitting anything whose ancestors have all arrived, and
// repeats until a full pass makes no further progress (spec.md §4.4).
func (e *Engine) scanDeferredLocked() {
	for {
		progressed := false
		for i := len(e.deferredOrder) - 1; i >= 0; i-- {
			// An admission below re-enters this scan, which compacts
			// deferredOrder; indices past its new end are gone.
			if i >= len(e.deferredOrder) {
				continue
			}
			key := e.deferredOrder[i]
			wire, ok := e.deferredWire[key]
			if !ok {
				continue
			}
			rec, err := record.Decode(wire)
			if err != nil {
				delete(e.deferredWire, key)
				continue
			}
			if !e.allPresent(rec) {
				continue
			}
			delete(e.deferredWire, key)
			if disp, _ := e.admitLocked(wire); disp == Admitted {
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	compacted := e.deferredOrder[:0]
	for _, k := range e.deferredOrder {
		if _, ok := e.deferredWire[k]; ok {
			compacted = append(compacted, k)
		}
	}
	e.deferredOrder = compacted
}
