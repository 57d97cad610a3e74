// Package peer implements the single-threaded cooperative event-loop
// orchestrator that wires record, identity, store, engine and gossip
// together into a running DLedger peer (spec.md §5). Grounded on
// original_source/peer.cpp's constructor-mints-genesis /
// run-registers-filter-and-schedules-timers shape, and on the teacher's
// poll.NewSet for periodic-timer wiring with a registered Prometheus
// factory.
package peer

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/dledger/archive"
	"github.com/luxfi/dledger/config"
	"github.com/luxfi/dledger/engine"
	"github.com/luxfi/dledger/gossip"
	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/internal/xerrs"
	"github.com/luxfi/dledger/log"
	"github.com/luxfi/dledger/record"
	"github.com/luxfi/dledger/store"
)

// Peer owns every piece of local DLedger state. Timer-driven work runs on
// the goroutine executing Run; transport callbacks (incoming interests
// and fetched data) run on whatever goroutine the transport delivers them
// on, so admission is not confined to Run's goroutine. The engine,
// store, CertList and fetch tracker each guard their state with their
// own lock.
type Peer struct {
	cfg config.Parameters
	log log.Logger

	keychain  identity.Keychain
	certs     *identity.List
	store     *store.Store
	engine    *engine.Engine
	transport gossip.Transport
	handler   *gossip.Handler
	producer  *gossip.Producer
	sink      archive.Sink

	stop chan struct{}
}

// New builds a Peer from cfg, wiring every component but not yet
// minting genesis records or starting the event loop; call Bootstrap
// then Run.
func New(cfg config.Parameters, keychain identity.Keychain, transport gossip.Transport, sink archive.Sink, logger log.Logger, reg prometheus.Registerer) (*Peer, error) {
	if logger == nil {
		logger = log.NewNoOp()
	}
	if sink == nil {
		sink = archive.NewMemory()
	}

	trustAnchor, err := loadTrustAnchor(cfg.TrustAnchorCertPath)
	if err != nil {
		return nil, fmt.Errorf("peer: trust anchor: %w", err)
	}

	certs := identity.New(trustAnchor, logger, reg)
	st := store.New(cfg.ConfirmWeight, logger, reg)

	p := &Peer{
		cfg:       cfg,
		log:       logger,
		keychain:  keychain,
		certs:     certs,
		store:     st,
		transport: transport,
		sink:      sink,
		stop:      make(chan struct{}),
	}

	eng := engine.New(engine.Config{
		PrecedingRecordNum:      cfg.PrecedingRecordNum,
		ConfirmWeight:           cfg.ConfirmWeight,
		ContributionWeight:      cfg.ContributionWeight,
		UsingContributionPolicy: cfg.UsingContributionPolicy,
	}, st, certs, logger, reg, p.onFetchNeeded)
	p.engine = eng

	p.handler = gossip.NewHandler(cfg.MulticastPrefix, transport, eng, st, logger)
	p.producer = gossip.NewProducer(gossip.ProducerConfig{
		LocalIdentity:      cfg.PeerPrefix,
		PrecedingRecordNum: cfg.PrecedingRecordNum,
		RecordGenFreq:      cfg.RecordGenFreq,
		SyncFreq:           cfg.SyncFreq,
		FetchRetryFreq:      cfg.FetchRetryFreq,
	}, keychain, eng, st, p.handler, logger)

	if err := certs.Insert(keychain.Certificate()); err != nil {
		return nil, fmt.Errorf("peer: registering local certificate: %w", err)
	}
	if err := loadStartingPeers(certs, cfg.StartingPeerCertPaths); err != nil {
		return nil, fmt.Errorf("peer: starting peer roster: %w", err)
	}

	return p, nil
}

// Engine, Store, Certs and Handler expose the wired components to tooling
// and tests (cmd/dledger's run reads Store to log the bootstrap tip
// count). They return the live components, so calls made on them do not
// go through Run's loop.
func (p *Peer) Engine() *engine.Engine   { return p.engine }
func (p *Peer) Store() *store.Store      { return p.store }
func (p *Peer) Certs() *identity.List    { return p.certs }
func (p *Peer) Handler() *gossip.Handler { return p.handler }

// onFetchNeeded is the engine's only coupling to the gossip layer
// (spec.md §9: components borrow transient capability handles rather
// than owning each other). It is bound as a method value before
// p.handler exists but is never invoked until after New returns, by
// which point every field is set.
func (p *Peer) onFetchNeeded(name record.Name) {
	p.handler.FetchRecord(name)
}

func loadTrustAnchor(path string) (*x509.Certificate, error) {
	if path == "" {
		return nil, nil
	}
	return loadCertFile(path)
}

// loadStartingPeers loads every certificate in paths, accumulating
// failures rather than stopping at the first one, so a single bad or
// missing roster entry does not hide problems with the rest of it.
func loadStartingPeers(certs *identity.List, paths []string) error {
	var errs xerrs.Errs
	for _, path := range paths {
		cert, err := loadCertFile(path)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := certs.Insert(&identity.Certificate{
			FullName: cert.Subject.CommonName + "/KEY/" + cert.SerialNumber.String(),
			Identity: cert.Subject.CommonName,
			DER:      cert.Raw,
			Cert:     cert,
		}); err != nil {
			errs.Add(fmt.Errorf("%s: %w", path, err))
		}
	}
	return errs.Err()
}

func loadCertFile(path string) (*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("peer: %s is not PEM-encoded", path)
	}
	return x509.ParseCertificate(block.Bytes)
}
