package gossip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchTrackerDedupesBegin(t *testing.T) {
	f := newFetchTracker()
	ok := f.begin("a")
	require.True(t, ok)

	ok = f.begin("a")
	require.False(t, ok)
}

func TestFetchTrackerDoneAllowsReissue(t *testing.T) {
	f := newFetchTracker()
	ok := f.begin("a")
	require.True(t, ok)
	f.done("a")

	ok = f.begin("a")
	require.True(t, ok)
}

func TestFetchTrackerDueRespectsBackoff(t *testing.T) {
	f := newFetchTracker()
	f.begin("a")
	require.Empty(t, f.due(), "should not be due immediately after begin")

	f.mu.Lock()
	f.pending["a"].nextTry = time.Now().Add(-time.Second)
	f.mu.Unlock()

	due := f.due()
	require.Equal(t, []string{"a"}, due)
}

func TestFetchTrackerStopsAfterMaxAttempts(t *testing.T) {
	f := newFetchTracker()
	f.begin("a")
	f.pending["a"].attempts = fetchMaxAttempts
	f.pending["a"].nextTry = time.Now().Add(-time.Second)

	require.Empty(t, f.due())
}
