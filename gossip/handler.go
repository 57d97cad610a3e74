package gossip

import (
	"github.com/luxfi/dledger/engine"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
	"github.com/luxfi/dledger/store"
)

// Handler dispatches incoming NOTIF/SYNC/FETCH interests to the engine
// and store, and issues outgoing FETCH/SYNC interests in response.
// Grounded on the teacher's networking/router.go dispatch-by-prefix
// shape, generalized from node-addressed handlers to named-data ones.
type Handler struct {
	mcPrefix  string
	transport Transport
	engine    *engine.Engine
	store     *store.Store
	log       log.Logger

	fetches *fetchTracker
}

// NewHandler builds a Handler wired to transport, engine and store under
// mcPrefix.
func NewHandler(mcPrefix string, transport Transport, eng *engine.Engine, st *store.Store, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.NewNoOp()
	}
	return &Handler{
		mcPrefix:  mcPrefix,
		transport: transport,
		engine:    eng,
		store:     st,
		log:       logger,
		fetches:   newFetchTracker(),
	}
}

// OnInterest is registered with Transport.SetInterestFilter under
// mcPrefix and dispatches by name shape.
func (h *Handler) OnInterest(name record.Name) {
	if announced, ok := IsNotifName(h.mcPrefix, name); ok {
		h.onNotif(announced)
		return
	}
	if tips, ok := IsSyncName(h.mcPrefix, name); ok {
		h.onSync(tips)
		return
	}
	h.onFetch(name)
}

// onNotif implements spec.md §4.5.1: ignore if already admitted, else
// fetch the announced record.
func (h *Handler) onNotif(name record.Name) {
	if h.store.Contains(name) {
		return
	}
	h.FetchRecord(name)
}

// onSync implements spec.md §4.5.2.
func (h *Handler) onSync(tips []record.Name) {
	respond := false
	for _, tip := range tips {
		entry, ok := h.store.Get(tip)
		if !ok {
			h.FetchRecord(tip)
			continue
		}
		if entry.Weight > 1 {
			respond = true
		}
	}
	if respond {
		h.EmitSync()
	}
}

// onFetch implements spec.md §4.5.3: serve from the store if present,
// otherwise forward the interest upstream without blocking (the
// exponential-backoff re-request policy lives in fetchTracker, applied
// uniformly whether the miss originated locally or from a forwarded
// FETCH).
func (h *Handler) onFetch(name record.Name) {
	entry, ok := h.store.Get(name)
	if ok {
		if err := h.transport.Put(name, entry.Wire); err != nil {
			h.log.Warn("fetch response failed", "name", name.String(), "err", err)
		}
		return
	}
	h.FetchRecord(name)
}

// FetchRecord issues a FETCH interest for name if one is not already
// outstanding, feeding any resulting bytes to the engine. Repeated calls
// for the same name before a response arrives are no-ops; see
// fetchTracker for the backoff policy governing re-issue.
func (h *Handler) FetchRecord(name record.Name) {
	if !h.fetches.begin(name.String()) {
		return
	}
	h.issueFetch(name)
}

// issueFetch expresses interest in name over the transport. The
// callback fires asynchronously, possibly on a different goroutine,
// whenever (and if) a matching Put arrives.
func (h *Handler) issueFetch(name record.Name) {
	err := h.transport.ExpressInterest(name, func(data []byte) {
		h.fetches.done(name.String())
		disp, err := h.engine.Admit(data)
		if err != nil {
			h.log.Debug("admit after fetch failed", "name", name.String(), "err", err)
			return
		}
		h.log.Debug("admitted fetched record", "name", name.String(), "disposition", disp.String())
	})
	if err != nil {
		h.log.Warn("express interest failed", "name", name.String(), "err", err)
		h.fetches.done(name.String())
	}
}

// EmitSync publishes a SYNC interest carrying the current tip set.
func (h *Handler) EmitSync() {
	tips := h.store.Tips()
	name := SyncName(h.mcPrefix, tips)
	if err := h.transport.ExpressInterest(name, nil); err != nil {
		h.log.Warn("sync emit failed", "err", err)
	}
}

// EmitNotif publishes a NOTIF interest announcing rec.
func (h *Handler) EmitNotif(rec *record.Record) {
	name := NotifName(h.mcPrefix, rec)
	if err := h.transport.ExpressInterest(name, nil); err != nil {
		h.log.Warn("notif emit failed", "name", rec.Name.String(), "err", err)
	}
}

// RetryStale re-issues FETCH for any outstanding request whose backoff
// has elapsed. Called periodically by the producer loop (SUPPLEMENTED
// FEATURES: exponential backoff re-request, since spec.md §5 explicitly
// leaves this to implementations).
func (h *Handler) RetryStale() {
	for _, key := range h.fetches.due() {
		h.issueFetch(record.ParseName(key))
	}
}
