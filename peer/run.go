package peer

import (
	"context"
	"time"

	"github.com/luxfi/dledger/archive"
	"github.com/luxfi/dledger/record"
)

// processPumpInterval bounds how often Run drains Transport.ProcessEvents
// for transports that need cooperative pumping rather than their own
// background goroutine (zmqtransport.Transport needs neither, since its
// receive loop dispatches directly, but the contract supports both).
const processPumpInterval = 50 * time.Millisecond

// Run registers the interest filter and starts the cooperative event
// loop (spec.md §5): a single select over timer firings and transport
// pumping until ctx is cancelled or Stop is called. Grounded on
// original_source/peer.cpp's Peer::run (register filter, schedule
// recordGenFreq/syncFreq timers, pump face events).
func (p *Peer) Run(ctx context.Context) error {
	if err := p.transport.SetInterestFilter(record.NewName(p.cfg.MulticastPrefix), p.handler.OnInterest); err != nil {
		return err
	}

	stopArchive := make(chan struct{})
	go archive.Pump(p.store, p.sink, stopArchive, p.log)
	defer close(stopArchive)

	recordGen := time.NewTicker(p.cfg.RecordGenFreq)
	defer recordGen.Stop()
	sync := time.NewTicker(p.cfg.SyncFreq)
	defer sync.Stop()
	retry := time.NewTicker(p.cfg.FetchRetryFreq)
	defer retry.Stop()
	pump := time.NewTicker(processPumpInterval)
	defer pump.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stop:
			return nil
		case <-recordGen.C:
			if err := p.producer.Tick(); err != nil {
				p.log.Warn("record generation tick failed", "err", err)
			}
		case <-sync.C:
			p.producer.SyncTick()
		case <-retry.C:
			p.producer.RetryTick()
		case <-pump.C:
			if err := p.transport.ProcessEvents(); err != nil {
				p.log.Warn("transport event processing failed", "err", err)
			}
		}
	}
}

// Stop ends Run's loop on its next iteration.
func (p *Peer) Stop() {
	close(p.stop)
}
