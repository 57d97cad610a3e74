package peer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dledger/config"
	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/record"
)

type noopTransport struct{}

func (noopTransport) ExpressInterest(record.Name, func([]byte)) error      { return nil }
func (noopTransport) SetInterestFilter(record.Name, func(record.Name)) error { return nil }
func (noopTransport) Put(record.Name, []byte) error                        { return nil }
func (noopTransport) ProcessEvents() error                                 { return nil }

func newTestPeer(t *testing.T, genesisNum int) *Peer {
	t.Helper()
	kc, err := identity.NewEd25519Keychain("peerA", nil, nil)
	require.NoError(t, err)

	cfg := config.DefaultParameters
	cfg.MulticastPrefix = "fed"
	cfg.PeerPrefix = "peerA"
	cfg.GenesisNum = genesisNum

	p, err := New(cfg, kc, noopTransport{}, nil, nil, nil)
	require.NoError(t, err)
	return p
}

func TestBootstrapMintsGenesisTips(t *testing.T) {
	p := newTestPeer(t, 4)
	require.NoError(t, p.Bootstrap())

	tips := p.Store().Tips()
	require.Len(t, tips, 4)
	for _, tip := range tips {
		entry, ok := p.Store().Get(tip)
		require.True(t, ok)
		require.Equal(t, 0, entry.Weight)
		require.False(t, entry.Archived)
		require.Equal(t, "peerA", tip.ProducerIdentity())
	}
}

func TestBootstrapGenesisRecordsAreDistinct(t *testing.T) {
	p := newTestPeer(t, 3)
	require.NoError(t, p.Bootstrap())
	require.Equal(t, 3, p.Store().Len())
}

func TestBootstrapFailsWithoutLocalCertificate(t *testing.T) {
	kc, err := identity.NewEd25519Keychain("peerA", nil, nil)
	require.NoError(t, err)

	cfg := config.DefaultParameters
	cfg.MulticastPrefix = "fed"
	cfg.PeerPrefix = "peerA"
	cfg.GenesisNum = 1

	p, err := New(cfg, kc, noopTransport{}, nil, nil, nil)
	require.NoError(t, err)

	p.certs.Revoke(kc.Certificate().FullName)
	err = p.Bootstrap()
	require.Error(t, err)
}
