// Package store implements the DAG Store (DS): the authoritative
// in-memory index from record name to ledger entry, and the tip set.
// Grounded on the teacher's engine/dag/state.serializer, generalized from
// a vertex index to the DLedger entry shape (wire bytes, weight,
// approver set, archived flag).
package store

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
)

// ErrAlreadyExists is returned by Insert when name is already admitted.
var ErrAlreadyExists = errors.New("store: record already admitted")

// ErrNotFound is returned when a name has no entry.
var ErrNotFound = errors.New("store: not found")

// Entry is one admitted record's ledger entry.
type Entry struct {
	Name      record.Name
	Wire      []byte
	Preceding []record.Name
	Weight    int
	Approvers xset.Set[string]
	Archived  bool
}

// Store is the DAG Store (DS).
type Store struct {
	mu sync.RWMutex

	log           log.Logger
	confirmWeight int

	entries map[string]*Entry
	tips    xset.Set[string]

	archived chan *Entry

	tipGauge      prometheus.Gauge
	entryGauge    prometheus.Gauge
	archivedTotal prometheus.Counter
}

// New creates an empty Store. confirmWeight is the |approvers| threshold
// at which an entry is archived (spec.md §3, confirmWeight).
func New(confirmWeight int, logger log.Logger, reg prometheus.Registerer) *Store {
	if logger == nil {
		logger = log.NewNoOp()
	}
	s := &Store{
		log:           logger,
		confirmWeight: confirmWeight,
		entries:       make(map[string]*Entry),
		tips:          xset.New[string](0),
		archived:      make(chan *Entry, 256),
		tipGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dledger_store_tips",
			Help: "Current number of DAG tips.",
		}),
		entryGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dledger_store_entries",
			Help: "Current number of admitted entries.",
		}),
		archivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_store_archived_total",
			Help: "Total entries archived.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.tipGauge, s.entryGauge, s.archivedTotal)
	}
	return s
}

// Get returns the entry for name, if admitted.
func (s *Store) Get(name record.Name) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name.String()]
	return e, ok
}

// Contains reports whether name is admitted.
func (s *Store) Contains(name record.Name) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[name.String()]
	return ok
}

// Insert admits r into the store with the given initial weight/approver
// set (both normally zero/empty; non-zero is used only when replaying a
// deferred record whose weight was already known by some other means,
// which the current engine never does, but the parameter is kept to
// match spec.md §4.3's signature). name must not already exist.
func (s *Store) Insert(r *record.Record, initialApprovers xset.Set[string]) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Name.String()
	if _, exists := s.entries[key]; exists {
		return nil, ErrAlreadyExists
	}

	var approvers xset.Set[string]
	if initialApprovers == nil {
		approvers = xset.New[string](0)
	} else {
		// Clone rather than alias: the caller may still hold and mutate
		// initialApprovers after Insert returns.
		approvers = initialApprovers.Clone()
	}
	e := &Entry{
		Name:      r.Name,
		Wire:      record.Encode(r),
		Preceding: append([]record.Name{}, r.Preceding...),
		Weight:    approvers.Len(),
		Approvers: approvers,
	}
	s.entries[key] = e
	s.tips.Add(key)

	s.entryGauge.Set(float64(len(s.entries)))
	s.tipGauge.Set(float64(s.tips.Len()))
	return e, nil
}

// RemoveFromTips removes name from the tip set, used when some successor
// is admitted referencing it.
func (s *Store) RemoveFromTips(name record.Name) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tips.Remove(name.String())
	s.tipGauge.Set(float64(s.tips.Len()))
}

// IncrementWeight adds approverIdentity to name's approver set, if it is
// not already present (idempotent per spec.md §4.4's "do not
// re-increment" rule). It returns the entry and whether this call caused
// it to cross the confirmation threshold and become archived.
func (s *Store) IncrementWeight(name record.Name, approverIdentity string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := name.String()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, ErrNotFound
	}
	if e.Archived {
		return e, false, nil
	}
	if e.Approvers.Contains(approverIdentity) {
		return e, false, nil
	}

	e.Approvers.Add(approverIdentity)
	e.Weight = e.Approvers.Len()

	justArchived := false
	if e.Weight >= s.confirmWeight {
		e.Archived = true
		justArchived = true
		s.tips.Remove(key)
		s.archivedTotal.Inc()
		s.tipGauge.Set(float64(s.tips.Len()))
		select {
		case s.archived <- e:
		default:
			s.log.Warn("archive export channel full, dropping notification",
				"name", name.String())
		}
	}
	return e, justArchived, nil
}

// Tips returns the current tip names.
func (s *Store) Tips() []record.Name {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Name, 0, s.tips.Len())
	for k := range s.tips {
		out = append(out, record.ParseName(k))
	}
	return out
}

// ArchivedExport returns the channel external archive sinks read
// newly-archived entries from.
func (s *Store) ArchivedExport() <-chan *Entry {
	return s.archived
}

// Len returns the number of admitted entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
