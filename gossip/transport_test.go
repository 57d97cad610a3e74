package gossip

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/dledger/record"
)

func TestNotifNameRoundTrip(t *testing.T) {
	rec := &record.Record{ProducerIdentity: "peerA"}
	rec.Name = record.NewName("fed", "peerA", "deadbeef")

	n := NotifName("fed", rec)
	require.Equal(t, "/fed/NOTIF/peerA/deadbeef", n.String())

	announced, ok := IsNotifName("fed", n)
	require.True(t, ok)
	require.True(t, announced.Equal(rec.Name))
}

func TestIsNotifNameRejectsOtherShapes(t *testing.T) {
	_, ok := IsNotifName("fed", record.NewName("fed", "SYNC", "a", "b"))
	require.False(t, ok)

	_, ok = IsNotifName("fed", record.NewName("other", "NOTIF", "a", "b"))
	require.False(t, ok)
}

func TestSyncNameRoundTrip(t *testing.T) {
	tips := []record.Name{
		record.NewName("fed", "peerA", "aaaa"),
		record.NewName("fed", "peerB", "bbbb"),
	}
	n := SyncName("fed", tips)
	require.Equal(t, "/fed/SYNC/peerA/aaaa/peerB/bbbb", n.String())

	got, ok := IsSyncName("fed", n)
	require.True(t, ok)
	require.Len(t, got, 2)
	require.True(t, got[0].Equal(tips[0]))
	require.True(t, got[1].Equal(tips[1]))
}

func TestIsSyncNameRejectsOddComponents(t *testing.T) {
	_, ok := IsSyncName("fed", record.NewName("fed", "SYNC", "onlyone"))
	require.False(t, ok)
}
