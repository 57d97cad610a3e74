package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dledger/identity"
	"github.com/luxfi/dledger/record"
	"github.com/luxfi/dledger/store"
)

type testPeer struct {
	identity string
	kc       identity.Keychain
}

func newTestPeer(t *testing.T, id string) testPeer {
	t.Helper()
	kc, err := identity.NewEd25519Keychain(id, nil, nil)
	require.NoError(t, err)
	return testPeer{identity: id, kc: kc}
}

func (p testPeer) sign(t *testing.T, r *record.Record) []byte {
	t.Helper()
	sig, err := p.kc.Sign(r.Type, record.ContentBytes(r))
	require.NoError(t, err)
	r.Signature = sig
	r.Name = record.BuildName("fed", r)
	return record.Encode(r)
}

func buildHarness(t *testing.T, confirmWeight int, peers ...testPeer) (*Engine, *store.Store, *identity.List) {
	t.Helper()
	st := store.New(confirmWeight, nil, nil)
	cl := identity.New(nil, nil, nil)
	for _, p := range peers {
		require.NoError(t, cl.Insert(p.kc.Certificate()))
	}
	e := New(Config{
		PrecedingRecordNum: 2,
		ConfirmWeight:      confirmWeight,
	}, st, cl, nil, nil, nil)
	return e, st, cl
}

// mintGenesis admits a GENESIS record for p. GENESIS records of one
// producer with equal payloads share a name, so a second genesis for the
// same producer needs a distinguishing payload item.
func mintGenesis(t *testing.T, e *Engine, p testPeer, payload ...record.Item) record.Name {
	t.Helper()
	r := &record.Record{ProducerIdentity: p.identity, Type: record.Genesis, Payload: payload}
	wire := p.sign(t, r)
	disp, err := e.Admit(wire)
	require.NoError(t, err)
	require.Equal(t, Admitted, disp)
	return r.Name
}

func TestBootstrapGenesisTips(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	e, st, _ := buildHarness(t, 3, peerA)

	var names []record.Name
	for i := 0; i < 4; i++ {
		r := &record.Record{
			ProducerIdentity: "peerA",
			Type:             record.Genesis,
			Payload:          []record.Item{{Tag: "seq", Value: []byte{byte(i)}}},
		}
		wire := peerA.sign(t, r)
		disp, err := e.Admit(wire)
		require.NoError(t, err)
		require.Equal(t, Admitted, disp)
		names = append(names, r.Name)
	}

	require.Len(t, st.Tips(), 4)
	for _, n := range names {
		entry, ok := st.Get(n)
		require.True(t, ok)
		require.Equal(t, 0, entry.Weight)
		require.False(t, entry.Archived)
	}
}

func TestInterlockRejectsSelfReferencingPreceding(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	peerB := newTestPeer(t, "peerB")
	e, _, _ := buildHarness(t, 3, peerA, peerB)

	gA := mintGenesis(t, e, peerA)
	gA2 := mintGenesis(t, e, peerA, record.Item{Tag: "seq", Value: []byte("2")})

	// peerA tries to reference two of its own records.
	r := &record.Record{
		ProducerIdentity: "peerA",
		Type:             record.Generic,
		Preceding:        []record.Name{gA, gA2},
	}
	wire := peerA.sign(t, r)

	disp, err := e.Admit(wire)
	require.Equal(t, Rejected, disp)
	require.ErrorIs(t, err, ErrInterlockViolation)
}

func TestInterlockRejectsOwnProducerAsPreceding(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	peerB := newTestPeer(t, "peerB")
	e, _, _ := buildHarness(t, 3, peerA, peerB)

	gA := mintGenesis(t, e, peerA)
	gB := mintGenesis(t, e, peerB)

	r := &record.Record{
		ProducerIdentity: "peerA",
		Type:             record.Generic,
		Preceding:        []record.Name{gA, gB},
	}
	wire := peerA.sign(t, r)

	disp, err := e.Admit(wire)
	require.Equal(t, Rejected, disp)
	require.ErrorIs(t, err, ErrInterlockViolation)
}

func TestConfirmationAfterFourDistinctApprovers(t *testing.T) {
	target := newTestPeer(t, "target")
	p1, p2, p3, p4 := newTestPeer(t, "p1"), newTestPeer(t, "p2"), newTestPeer(t, "p3"), newTestPeer(t, "p4")
	e, st, _ := buildHarness(t, 3, target, p1, p2, p3, p4)

	gT := mintGenesis(t, e, target)
	gOther := mintGenesis(t, e, p1)

	for _, p := range []testPeer{p1, p2, p3, p4} {
		r := &record.Record{
			ProducerIdentity: p.identity,
			Type:             record.Generic,
			Preceding:        []record.Name{gT, gOther},
		}
		if p.identity == p1.identity {
			// p1 cannot reference its own genesis (interlock), so give it
			// a different second reference.
			g2 := mintGenesis(t, e, p2)
			r.Preceding = []record.Name{gT, g2}
		}
		wire := p.sign(t, r)
		disp, err := e.Admit(wire)
		require.NoError(t, err)
		require.Equal(t, Admitted, disp)
	}

	entry, ok := st.Get(gT)
	require.True(t, ok)
	require.True(t, entry.Archived, "target should be archived after 4 distinct approvers with confirmWeight=3")
}

func TestDeferredAdmission(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	peerB := newTestPeer(t, "peerB")
	peerC := newTestPeer(t, "peerC")
	e, st, _ := buildHarness(t, 3, peerA, peerB, peerC)

	gA := mintGenesis(t, e, peerA)

	// B's genesis, built but not yet admitted locally.
	gBRec := &record.Record{ProducerIdentity: "peerB", Type: record.Genesis}
	gBWire := peerB.sign(t, gBRec)

	// R is produced by peerC so that neither preceding producer equals
	// R's own (interlock).
	r := &record.Record{
		ProducerIdentity: "peerC",
		Type:             record.Generic,
		Preceding:        []record.Name{gA, gBRec.Name},
	}
	rWire := peerC.sign(t, r)

	// R arrives before its ancestor B's genesis.
	disp, err := e.Admit(rWire)
	require.NoError(t, err)
	require.Equal(t, Deferred, disp)
	require.Equal(t, 1, e.DeferredCount())
	require.Contains(t, e.Missing(), gBRec.Name.String())
	require.False(t, st.Contains(r.Name))

	// The ancestor now arrives.
	disp, err = e.Admit(gBWire)
	require.NoError(t, err)
	require.Equal(t, Admitted, disp)

	require.True(t, st.Contains(r.Name), "R should admit once its ancestor arrives, without re-broadcast")
	require.Equal(t, 0, e.DeferredCount())
	require.Empty(t, e.Missing())
}

func TestIdempotentAdmission(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	e, st, _ := buildHarness(t, 3, peerA)

	r := &record.Record{ProducerIdentity: "peerA", Type: record.Genesis}
	wire := peerA.sign(t, r)

	disp1, err := e.Admit(wire)
	require.NoError(t, err)
	require.Equal(t, Admitted, disp1)

	for i := 0; i < 5; i++ {
		disp, err := e.Admit(wire)
		require.NoError(t, err)
		require.Equal(t, Duplicate, disp)
	}
	require.Equal(t, 1, st.Len())
}

func TestSybilBoundedApproverCounting(t *testing.T) {
	target := newTestPeer(t, "target")
	flooder := newTestPeer(t, "flooder")
	other := newTestPeer(t, "other")
	e, st, _ := buildHarness(t, 3, target, flooder, other)

	gT := mintGenesis(t, e, target)
	gO := mintGenesis(t, e, other)

	// The same producer issues three distinct successors of gT. Each
	// references gT plus other's genesis (neither is the flooder's own
	// record, so interlock passes) and carries a different payload item so
	// each gets its own name.
	for i := 0; i < 3; i++ {
		r := &record.Record{
			ProducerIdentity: "flooder",
			Type:             record.Generic,
			Preceding:        []record.Name{gT, gO},
			Payload:          []record.Item{{Tag: "seq", Value: []byte{byte(i)}}},
		}
		wire := flooder.sign(t, r)
		disp, err := e.Admit(wire)
		require.NoError(t, err)
		require.Equal(t, Admitted, disp)
	}

	entry, ok := st.Get(gT)
	require.True(t, ok)
	require.Equal(t, 1, entry.Weight, "a single producer issuing K successors must add at most one approver")
}

func TestStructuralViolationWrongPrecedingCount(t *testing.T) {
	peerA := newTestPeer(t, "peerA")
	e, _, _ := buildHarness(t, 3, peerA)

	gA := mintGenesis(t, e, peerA)
	r := &record.Record{
		ProducerIdentity: "peerA",
		Type:             record.Generic,
		Preceding:        []record.Name{gA},
	}
	wire := peerA.sign(t, r)

	disp, err := e.Admit(wire)
	require.Equal(t, Rejected, disp)
	require.ErrorIs(t, err, ErrStructuralViolation)
}

func TestContributionPolicyRejectsNearConfirmedReference(t *testing.T) {
	target := newTestPeer(t, "target")
	p1, p2, p3 := newTestPeer(t, "p1"), newTestPeer(t, "p2"), newTestPeer(t, "p3")
	e, st, _ := buildHarness(t, 3, target, p1, p2, p3)
	e.cfg.UsingContributionPolicy = true
	e.cfg.ContributionWeight = 2

	gT := mintGenesis(t, e, target)
	gOther := mintGenesis(t, e, p1)

	g2 := mintGenesis(t, e, p2)
	r1 := &record.Record{ProducerIdentity: "p1", Type: record.Generic, Preceding: []record.Name{gT, g2}}
	wire1 := p1.sign(t, r1)
	disp, err := e.Admit(wire1)
	require.NoError(t, err)
	require.Equal(t, Admitted, disp)

	r2 := &record.Record{ProducerIdentity: "p2", Type: record.Generic, Preceding: []record.Name{gT, gOther}}
	wire2 := p2.sign(t, r2)
	disp, err = e.Admit(wire2)
	require.NoError(t, err)
	require.Equal(t, Admitted, disp)

	entry, ok := st.Get(gT)
	require.True(t, ok)
	require.Equal(t, 2, entry.Weight)

	// Now a third reference to gT should be rejected: entropy(gT) == 2 >=
	// confirmWeight(3)? No: confirmWeight is 3 here, so this specific
	// setup does not yet trigger rejection at weight 2. Push it to the
	// threshold explicitly via a direct build referencing gT a third time
	// after contribution is configured with ConfirmWeight effectively
	// equal to the already-reached weight.
	e.cfg.ConfirmWeight = 2
	r3 := &record.Record{ProducerIdentity: "p3", Type: record.Generic, Preceding: []record.Name{gT, gOther}}
	wire3 := p3.sign(t, r3)
	disp, err = e.Admit(wire3)
	require.Equal(t, Rejected, disp)
	require.ErrorIs(t, err, ErrContributionViolation)
}
