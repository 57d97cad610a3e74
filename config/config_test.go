package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetParametersByNameKnownPresets(t *testing.T) {
	for _, name := range PresetNames() {
		_, err := GetParametersByName(name)
		require.NoError(t, err)
	}
}

func TestGetParametersByNameUnknown(t *testing.T) {
	_, err := GetParametersByName("doesnotexist")
	require.Error(t, err)
	var unknown *UnknownPresetError
	require.ErrorAs(t, err, &unknown)
}

func TestBuilderHappyPath(t *testing.T) {
	p, err := NewBuilder().
		FromPreset("local").
		WithFederation("fed", "peerA").
		WithThresholds(2, 2, 3).
		WithGenesisNum(4).
		WithTimers(time.Second, 2*time.Second, 0).
		Build()

	require.NoError(t, err)
	require.Equal(t, "fed", p.MulticastPrefix)
	require.Equal(t, "peerA", p.PeerPrefix)
	require.Equal(t, 3, p.ConfirmWeight)
	require.Equal(t, 4, p.GenesisNum)
}

func TestBuilderRequiresFederation(t *testing.T) {
	_, err := NewBuilder().Build()
	require.Error(t, err)
}

func TestBuilderRejectsInvalidThresholds(t *testing.T) {
	_, err := NewBuilder().
		WithFederation("fed", "peerA").
		WithThresholds(0, 2, 3).
		Build()
	require.Error(t, err)
}

func TestBuilderErrorShortCircuitsSubsequentCalls(t *testing.T) {
	b := NewBuilder().WithThresholds(0, 2, 3)
	b = b.WithFederation("fed", "peerA").WithGenesisNum(4)
	_, err := b.Build()
	require.Error(t, err, "first validation error must stick")
}

func TestRuntimeDefaultsWithoutInitialization(t *testing.T) {
	got := GetRuntime()
	require.Equal(t, DefaultParameters, got)
}

func TestInitializeRuntime(t *testing.T) {
	require.NoError(t, InitializeRuntime("production"))
	require.Equal(t, ProductionParameters, GetRuntime())

	// Restore default for subsequent tests in this package.
	SetRuntime(DefaultParameters)
}
