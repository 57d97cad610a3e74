package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnavailableRunnerAlwaysFails(t *testing.T) {
	var r Runner = Unavailable{}
	_, err := r.Run([]byte("code"), []byte("input"))
	require.ErrorIs(t, err, ErrRunnerUnavailable)
}
