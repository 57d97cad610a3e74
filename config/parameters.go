// Package config holds DLedger's runtime parameters: admission and
// confirmation thresholds, trust bootstrap material, and timer
// intervals (spec.md §6). Grounded on the teacher's config package
// (parameters.go/builder.go/presets.go/runtime.go), generalized from
// consensus sampling parameters to ledger admission parameters.
package config

import "time"

// Parameters is the full set of recognized configuration options
// (spec.md §6).
type Parameters struct {
	// MulticastPrefix is the name prefix defining the federation scope.
	MulticastPrefix string `json:"multicastPrefix"`
	// PeerPrefix is the local producer identity prefix.
	PeerPrefix string `json:"peerPrefix"`

	// PrecedingRecordNum is the exact number of references per
	// non-GENESIS record.
	PrecedingRecordNum int `json:"precedingRecordNum"`
	// AppendWeight is the weight increment unit.
	AppendWeight int `json:"appendWeight"`
	// ContributionWeight is carried through to engine.Config, but no
	// admission check reads it: the contribution policy rejects a
	// reference whose entropy has reached ConfirmWeight.
	ContributionWeight int `json:"contributionWeight"`
	// ConfirmWeight is the |approvers| threshold at which a record is
	// archived.
	ConfirmWeight int `json:"confirmWeight"`
	// UsingContributionPolicy gates the optional admission rule.
	UsingContributionPolicy bool `json:"usingContributionPolicy"`

	// TrustAnchorCertPath is the PEM path of the bootstrap certificate
	// every producer certificate must chain to.
	TrustAnchorCertPath string `json:"trustAnchorCert,omitempty"`
	// StartingPeerCertPaths is the initial trust roster loaded into the
	// CertList at bootstrap.
	StartingPeerCertPaths []string `json:"startingPeerCertPaths,omitempty"`

	// GenesisNum is the number of GENESIS records minted at bootstrap.
	GenesisNum int `json:"genesisNum"`

	// RecordGenFreq and SyncFreq are the local producer loop's periodic
	// timer intervals.
	RecordGenFreq time.Duration `json:"recordGenFreq"`
	SyncFreq      time.Duration `json:"syncFreq"`
	// FetchRetryFreq is a DLedger addition (spec.md §5's optional
	// exponential backoff policy) controlling how often outstanding
	// FETCH interests are swept for retry.
	FetchRetryFreq time.Duration `json:"fetchRetryFreq"`
}

// DefaultParameters mirrors the defaults named in spec.md §6.
var DefaultParameters = Parameters{
	PrecedingRecordNum:      2,
	AppendWeight:            1,
	ContributionWeight:      2,
	ConfirmWeight:           3,
	UsingContributionPolicy: false,
	GenesisNum:              4,
	RecordGenFreq:           5 * time.Second,
	SyncFreq:                10 * time.Second,
	FetchRetryFreq:          2 * time.Second,
}

// LocalParameters is a small, fast-converging preset suitable for
// single-process integration tests and local federations.
var LocalParameters = Parameters{
	MulticastPrefix:         "local",
	PrecedingRecordNum:      2,
	AppendWeight:            1,
	ContributionWeight:      2,
	ConfirmWeight:           2,
	UsingContributionPolicy: false,
	GenesisNum:              2,
	RecordGenFreq:           time.Second,
	SyncFreq:                2 * time.Second,
	FetchRetryFreq:          500 * time.Millisecond,
}

// ProductionParameters is a conservative preset for larger federations
// where Sybil resistance matters more than convergence speed.
var ProductionParameters = Parameters{
	MulticastPrefix:         "federation",
	PrecedingRecordNum:      2,
	AppendWeight:            1,
	ContributionWeight:      2,
	ConfirmWeight:           5,
	UsingContributionPolicy: true,
	GenesisNum:              4,
	RecordGenFreq:           30 * time.Second,
	SyncFreq:                60 * time.Second,
	FetchRetryFreq:          5 * time.Second,
}

// PresetNames returns all available preset names, mirroring the
// teacher's config.PresetNames.
func PresetNames() []string {
	return []string{"default", "local", "production"}
}

// GetParametersByName resolves a preset name to its Parameters value.
func GetParametersByName(name string) (Parameters, error) {
	switch name {
	case "default", "":
		return DefaultParameters, nil
	case "local":
		return LocalParameters, nil
	case "production":
		return ProductionParameters, nil
	default:
		return Parameters{}, &UnknownPresetError{Name: name}
	}
}

// UnknownPresetError is returned by GetParametersByName for an
// unrecognized preset name.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return "config: unknown preset " + e.Name
}
