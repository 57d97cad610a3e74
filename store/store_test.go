package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dledger/internal/xset"
	"github.com/luxfi/dledger/record"
)

func genesis(identity, digest string) *record.Record {
	r := &record.Record{
		ProducerIdentity: identity,
		Type:             record.Genesis,
	}
	r.Name = record.BuildName("fed", r)
	return r
}

func TestInsertAddsTip(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")

	e, err := s.Insert(g, nil)
	require.NoError(t, err)
	require.Equal(t, 0, e.Weight)
	require.False(t, e.Archived)

	require.True(t, s.Contains(g.Name))
	require.ElementsMatch(t, []record.Name{g.Name}, s.Tips())
}

func TestInsertRejectsDuplicate(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")
	_, err := s.Insert(g, nil)
	require.NoError(t, err)

	_, err = s.Insert(g, nil)
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestIncrementWeightIsIdempotentPerApprover(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")
	_, err := s.Insert(g, nil)
	require.NoError(t, err)

	_, archived, err := s.IncrementWeight(g.Name, "peerB")
	require.NoError(t, err)
	require.False(t, archived)

	e, archived, err := s.IncrementWeight(g.Name, "peerB")
	require.NoError(t, err)
	require.False(t, archived)
	require.Equal(t, 1, e.Weight)
}

func TestConfirmWeightArchives(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")
	_, err := s.Insert(g, nil)
	require.NoError(t, err)

	for i, approver := range []string{"peerB", "peerC", "peerD"} {
		e, archived, err := s.IncrementWeight(g.Name, approver)
		require.NoError(t, err)
		if i < 2 {
			require.False(t, archived)
			require.False(t, e.Archived)
		} else {
			require.True(t, archived)
			require.True(t, e.Archived)
		}
	}

	e, _ := s.Get(g.Name)
	require.Equal(t, 3, e.Weight)
	require.Empty(t, s.Tips(), "archived entries must not remain tips")

	select {
	case exported := <-s.ArchivedExport():
		require.True(t, exported.Name.Equal(g.Name))
	default:
		t.Fatal("expected an archival notification")
	}
}

func TestRemoveFromTips(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")
	_, _ = s.Insert(g, nil)
	s.RemoveFromTips(g.Name)
	require.Empty(t, s.Tips())
}

func TestWeightEqualsApproverCount(t *testing.T) {
	s := New(5, nil, nil)
	g := genesis("peerA", "g1")
	_, _ = s.Insert(g, nil)

	approvers := []string{"b", "c", "d"}
	for _, a := range approvers {
		e, _, err := s.IncrementWeight(g.Name, a)
		require.NoError(t, err)
		require.Equal(t, e.Approvers.Len(), e.Weight)
	}
}

func TestInsertWithInitialApprovers(t *testing.T) {
	s := New(3, nil, nil)
	g := genesis("peerA", "g1")
	e, err := s.Insert(g, xset.Of("peerB"))
	require.NoError(t, err)
	require.Equal(t, 1, e.Weight)
}
