package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameComponents(t *testing.T) {
	n := NewName("fed", "peerA", "deadbeef")
	require.Equal(t, "/fed/peerA/deadbeef", n.String())
	require.Equal(t, "peerA", n.ProducerIdentity())
	require.Equal(t, "deadbeef", n.Digest())
	require.Equal(t, "fed", n.MulticastPrefix())
}

func TestParseNameRoundTrip(t *testing.T) {
	n := NewName("fed", "NOTIF", "peerA", "deadbeef")
	parsed := ParseName(n.String())
	require.True(t, n.Equal(parsed))
}

func TestNameAppendAndPrefix(t *testing.T) {
	n := NewName("fed", "SYNC")
	n = n.Append("tip1", "tip2")
	require.Equal(t, 4, n.Len())
	require.True(t, n.Prefix(2).Equal(NewName("fed", "SYNC")))
}

func TestNameEqual(t *testing.T) {
	require.True(t, NewName("a", "b").Equal(NewName("a", "b")))
	require.False(t, NewName("a", "b").Equal(NewName("a", "c")))
	require.False(t, NewName("a").Equal(NewName("a", "b")))
}
