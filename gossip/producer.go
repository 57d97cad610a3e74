package gossip

import (
	"errors"
	"math/rand"
	"time"

	"github.com/luxfi/dledger/engine"
	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
	"github.com/luxfi/dledger/store"
)

// ErrTipSelectionFailed mirrors engine.ErrTipSelectionFailed for the
// producer loop's own reporting; the two are distinct sentinels because
// tip selection here is a gossip-layer heuristic, not an engine
// admission rule.
var ErrTipSelectionFailed = errors.New("gossip: could not select distinct-producer tips")

const tipSelectionMaxRetries = 10

// ProducerConfig bounds the local record-generation and sync timers
// (spec.md §4.5.4, §6).
type ProducerConfig struct {
	LocalIdentity       string
	PrecedingRecordNum  int
	RecordGenFreq       time.Duration
	SyncFreq            time.Duration
	FetchRetryFreq      time.Duration
}

// Producer drives the local producer loop: periodic record generation
// and periodic SYNC emission, both described in spec.md §4.5.4.
// Grounded on the teacher's poll.NewSet's timer-driven periodic sampling
// loop, generalized from consensus polling to record production.
type Producer struct {
	cfg     ProducerConfig
	keychain identity.Keychain
	engine  *engine.Engine
	store   *store.Store
	handler *Handler
	log     log.Logger
	rand    *rand.Rand
}

// NewProducer builds a Producer. keychain signs newly minted records on
// behalf of cfg.LocalIdentity.
func NewProducer(cfg ProducerConfig, keychain identity.Keychain, eng *engine.Engine, st *store.Store, handler *Handler, logger log.Logger) *Producer {
	if logger == nil {
		logger = log.NewNoOp()
	}
	return &Producer{
		cfg:      cfg,
		keychain: keychain,
		engine:   eng,
		store:    st,
		handler:  handler,
		log:      logger,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Tick runs one record-generation attempt (spec.md §4.5.4 steps 1-4). It
// is idempotent with respect to back-pressure: if ancestors are still
// missing it is a documented no-op, not an error.
func (p *Producer) Tick() error {
	if len(p.engine.Missing()) > 0 {
		p.log.Debug("skipping record generation: missing ancestors pending")
		return nil
	}

	preceding, err := p.selectPreceding()
	if err != nil {
		p.log.Debug("skipping record generation: tip selection failed")
		return nil
	}

	rec := &record.Record{
		ProducerIdentity: p.cfg.LocalIdentity,
		Type:             record.Generic,
		Preceding:        preceding,
	}
	sig, err := p.keychain.Sign(rec.Type, record.ContentBytes(rec))
	if err != nil {
		return err
	}
	rec.Signature = sig
	rec.Name = record.BuildName(p.syncMulticastPrefix(), rec)

	wire := record.Encode(rec)
	disp, err := p.engine.Admit(wire)
	if err != nil {
		return err
	}
	if disp != engine.Admitted {
		p.log.Warn("locally produced record not admitted", "disposition", disp.String())
		return nil
	}

	p.handler.EmitNotif(rec)
	return nil
}

// SyncTick emits a SYNC carrying the current tip set (spec.md §4.5.4).
func (p *Producer) SyncTick() {
	p.handler.EmitSync()
}

// RetryTick re-issues any FETCH interests whose backoff has elapsed.
func (p *Producer) RetryTick() {
	p.handler.RetryStale()
}

func (p *Producer) syncMulticastPrefix() string {
	return p.handler.mcPrefix
}

// selectPreceding implements spec.md §4.5.4 step 2: precedingRecordNum
// distinct-producer tips, excluding tips produced by the local identity,
// retried up to tipSelectionMaxRetries times before giving up. Excluding
// local-produced tips unconditionally resolves spec.md §9's open
// question about self-produced tips: the corpus's interlock rule already
// forbids referencing one's own prior record, so a self-produced tip can
// never be a usable reference regardless of what else is available; see
// DESIGN.md.
func (p *Producer) selectPreceding() ([]record.Name, error) {
	num := p.cfg.PrecedingRecordNum
	candidates := make([]record.Name, 0)
	for _, tip := range p.store.Tips() {
		if tip.ProducerIdentity() == p.cfg.LocalIdentity {
			continue
		}
		candidates = append(candidates, tip)
	}
	if len(candidates) < num {
		return nil, ErrTipSelectionFailed
	}

	for attempt := 0; attempt < tipSelectionMaxRetries; attempt++ {
		shuffled := append([]record.Name{}, candidates...)
		p.rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		selected := make([]record.Name, 0, num)
		seenProducers := map[string]bool{}
		for _, c := range shuffled {
			id := c.ProducerIdentity()
			if seenProducers[id] {
				continue
			}
			seenProducers[id] = true
			selected = append(selected, c)
			if len(selected) == num {
				break
			}
		}
		wantDistinct := 2
		if num < wantDistinct {
			wantDistinct = num
		}
		if len(selected) == num && len(seenProducers) >= wantDistinct {
			return selected, nil
		}
	}
	return nil, ErrTipSelectionFailed
}
