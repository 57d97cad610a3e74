// Package engine implements the Admission & Weight Engine (AWE): it
// validates candidate records against structural, policy and signature
// rules and, on acceptance, propagates approver/weight information
// through ancestors. Grounded on the teacher's engine/dag package
// (engine.go, vertex.go, getter/getter_impl.go's BFS-over-ancestors
// shape), generalized from vote-based vertex consensus to
// approver-set-based record confirmation.
package engine

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
	"github.com/luxfi/dledger/store"
)

// Disposition is the outcome of Admit, the per-record state machine's
// terminal-or-waiting classification (spec.md §4.4).
type Disposition uint8

const (
	// Admitted means the record was accepted and is now in the Store.
	Admitted Disposition = iota
	// Deferred means the record is structurally and cryptographically
	// valid but is waiting on one or more missing ancestors.
	Deferred
	// Rejected is terminal: the record fails a structural, signature,
	// interlock or contribution check.
	Rejected
	// Duplicate means the record's name is already admitted; the call
	// was a silent no-op (spec.md §4.4 rule 1, idempotence, §8 property
	// 6).
	Duplicate
)

func (d Disposition) String() string {
	switch d {
	case Admitted:
		return "ADMITTED"
	case Deferred:
		return "DEFERRED"
	case Rejected:
		return "REJECTED"
	case Duplicate:
		return "DUPLICATE"
	default:
		return "UNKNOWN"
	}
}

// Config bounds how the engine admits and confirms records, mirroring
// the subset of spec.md §6's configuration relevant to AWE.
type Config struct {
	PrecedingRecordNum      int
	ConfirmWeight           int
	ContributionWeight      int
	UsingContributionPolicy bool
}

// Engine is the Admission & Weight Engine (AWE).
type Engine struct {
	mu sync.Mutex

	log   log.Logger
	cfg   Config
	store *store.Store
	certs *identity.List

	missing xset.Set[string]

	deferredWire  map[string][]byte
	deferredOrder []string

	onFetchNeeded func(record.Name)

	admittedTotal prometheus.Counter
	rejectedTotal prometheus.Counter
	deferredTotal prometheus.Counter
}

// New creates an Engine. onFetchNeeded is called (possibly many times
// across the engine's lifetime, but at most once per name while it
// remains missing) whenever admission discovers a referenced ancestor
// that is not yet in st; it is the engine's only coupling to the gossip
// layer and is expected to dispatch a FETCH.
func New(cfg Config, st *store.Store, certs *identity.List, logger log.Logger, reg prometheus.Registerer, onFetchNeeded func(record.Name)) *Engine {
	if logger == nil {
		logger = log.NewNoOp()
	}
	e := &Engine{
		log:           logger,
		cfg:           cfg,
		store:         st,
		certs:         certs,
		missing:       xset.New[string](0),
		deferredWire:  make(map[string][]byte),
		onFetchNeeded: onFetchNeeded,
		admittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_engine_admitted_total",
			Help: "Records fully admitted.",
		}),
		rejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_engine_rejected_total",
			Help: "Records rejected during admission.",
		}),
		deferredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dledger_engine_deferred_total",
			Help: "Records deferred for missing ancestors.",
		}),
	}
	if reg != nil {
		reg.MustRegister(e.admittedTotal, e.rejectedTotal, e.deferredTotal)
	}
	return e
}

// Admit runs the full admission pipeline on wire bytes (spec.md §4.4
// steps 1-6) and, on acceptance, propagates weight and re-evaluates the
// deferred set to a fixed point.
func (e *Engine) Admit(wire []byte) (Disposition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.admitLocked(wire)
}

// Missing returns the names currently believed missing.
func (e *Engine) Missing() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.missing.List()
}

// DeferredCount returns the number of records currently held pending
// ancestor completion.
func (e *Engine) DeferredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.deferredWire)
}

func (e *Engine) admitLocked(wire []byte) (Disposition, error) {
	rec, err := record.Decode(wire)
	if err != nil {
		e.rejectedTotal.Inc()
		return Rejected, err
	}

	// Rule 1: known records are idempotent no-ops.
	if e.store.Contains(rec.Name) {
		return Duplicate, nil
	}

	// Rule 2: structural. Non-GENESIS records must carry exactly
	// PrecedingRecordNum references; GENESIS must carry none.
	wantPreceding := e.cfg.PrecedingRecordNum
	if rec.Type == record.Genesis {
		wantPreceding = 0
	}
	if len(rec.Preceding) != wantPreceding {
		e.rejectedTotal.Inc()
		return Rejected, fmt.Errorf("%w: got %d, want %d", ErrStructuralViolation, len(rec.Preceding), wantPreceding)
	}

	// Rule 3: identity.
	if !e.certs.VerifyData(rec) {
		e.rejectedTotal.Inc()
		e.log.Debug("rejected record: signature invalid", "name", rec.Name.String())
		return Rejected, ErrSignatureInvalid
	}

	// Rule 4: interlock.
	if err := checkInterlock(rec); err != nil {
		e.rejectedTotal.Inc()
		e.log.Debug("rejected record: interlock violation", "name", rec.Name.String())
		return Rejected, err
	}

	// Rule 5: contribution policy (optional).
	if e.cfg.UsingContributionPolicy {
		if err := e.checkContribution(rec); err != nil {
			e.rejectedTotal.Inc()
			e.log.Debug("rejected record: contribution violation", "name", rec.Name.String())
			return Rejected, err
		}
	}

	// Rule 6: ancestor presence.
	if !e.allPresent(rec) {
		e.trackMissing(rec)
		e.deferRecord(rec.Name.String(), wire)
		e.deferredTotal.Inc()
		e.log.Debug("deferred record: ancestors missing", "name", rec.Name.String())
		return Deferred, nil
	}

	e.admitFully(rec)
	return Admitted, nil
}

func (e *Engine) admitFully(rec *record.Record) {
	if _, err := e.store.Insert(rec, nil); err != nil {
		// Rule 1 already excluded this above; a concurrent caller cannot
		// reach here because admitLocked holds e.mu for its duration.
		e.log.Error("insert failed after admission checks passed", "name", rec.Name.String(), "err", err)
		return
	}
	for _, p := range rec.Preceding {
		e.store.RemoveFromTips(p)
	}
	e.missing.Remove(rec.Name.String())
	e.propagate(rec)
	e.admittedTotal.Inc()
	e.log.Info("admitted record", "name", rec.Name.String(), "type", rec.Type.String())

	e.scanDeferredLocked()
}

func checkInterlock(rec *record.Record) error {
	seen := xset.New[string](len(rec.Preceding))
	for _, p := range rec.Preceding {
		id := p.ProducerIdentity()
		if id == rec.ProducerIdentity {
			return fmt.Errorf("%w: preceding record %s shares producer %s with R", ErrInterlockViolation, p.String(), id)
		}
		if seen.Contains(id) {
			return fmt.Errorf("%w: producer %s appears twice in preceding", ErrInterlockViolation, id)
		}
		seen.Add(id)
	}
	return nil
}

// checkContribution rejects R if any preceding entry currently present
// in the store already carries entropy >= ConfirmWeight. Ancestors not
// yet present are not checked here; they are handled by ancestor
// presence (rule 6) instead. The threshold is ConfirmWeight;
// Config.ContributionWeight is not consulted.
func (e *Engine) checkContribution(rec *record.Record) error {
	for _, p := range rec.Preceding {
		entry, ok := e.store.Get(p)
		if !ok {
			continue
		}
		if entry.Approvers.Len() >= e.cfg.ConfirmWeight {
			return fmt.Errorf("%w: preceding record %s has entropy %d >= confirmWeight %d",
				ErrContributionViolation, p.String(), entry.Approvers.Len(), e.cfg.ConfirmWeight)
		}
	}
	return nil
}

func (e *Engine) allPresent(rec *record.Record) bool {
	for _, p := range rec.Preceding {
		if !e.store.Contains(p) {
			return false
		}
	}
	return true
}

func (e *Engine) trackMissing(rec *record.Record) {
	for _, p := range rec.Preceding {
		if e.store.Contains(p) {
			continue
		}
		key := p.String()
		if e.missing.Contains(key) {
			continue
		}
		e.missing.Add(key)
		if e.onFetchNeeded != nil {
			e.onFetchNeeded(p)
		}
	}
}
