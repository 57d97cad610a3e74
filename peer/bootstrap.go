package peer

import (
	"fmt"
	"strconv"

	"github.com/luxfi/dledger/engine"
	"github.com/luxfi/dledger/record"
)

// Bootstrap mints cfg.GenesisNum GENESIS records for the local identity
// (spec.md §8 scenario 1), each admitted directly through the engine so
// |tips()| == GenesisNum immediately afterward. Grounded on
// original_source/peer.cpp's constructor, which seeds m_tipList and
// m_ledger with GENESIS_RECORD_NUM entries before run() is ever called.
func (p *Peer) Bootstrap() error {
	if !p.certs.AuthorizedToGenerate(p.cfg.PeerPrefix) {
		return fmt.Errorf("peer: %w", engine.ErrNotAuthorized)
	}

	for i := 0; i < p.cfg.GenesisNum; i++ {
		rec := &record.Record{
			ProducerIdentity: p.cfg.PeerPrefix,
			Type:             record.Genesis,
			// Payload differentiates otherwise-identical genesis
			// content so each of GenesisNum records content-addresses
			// to a distinct name; the original source achieves the same
			// separation by appending a sequence number to the name.
			Payload: []record.Item{{Tag: "seq", Value: []byte(strconv.Itoa(i))}},
		}
		sig, err := p.keychain.Sign(rec.Type, record.ContentBytes(rec))
		if err != nil {
			return fmt.Errorf("peer: signing genesis %d: %w", i, err)
		}
		rec.Signature = sig
		rec.Name = record.BuildName(p.cfg.MulticastPrefix, rec)

		disp, err := p.engine.Admit(record.Encode(rec))
		if err != nil {
			return fmt.Errorf("peer: admitting genesis %d: %w", i, err)
		}
		if disp != engine.Admitted {
			return fmt.Errorf("peer: genesis %d got disposition %s, want ADMITTED", i, disp)
		}
		p.log.Info("minted genesis record", "name", rec.Name.String())
	}
	return nil
}
