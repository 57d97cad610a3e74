package config

import (
	"fmt"
	"time"
)

// Builder provides a fluent interface for constructing Parameters,
// matching the teacher's config.Builder pattern (validate on each step,
// carry the first error to Build).
type Builder struct {
	params Parameters
	err    error
}

// NewBuilder starts from DefaultParameters.
func NewBuilder() *Builder {
	return &Builder{params: DefaultParameters}
}

// FromPreset loads a named preset as the builder's starting point,
// discarding any prior field values.
func (b *Builder) FromPreset(name string) *Builder {
	if b.err != nil {
		return b
	}
	p, err := GetParametersByName(name)
	if err != nil {
		b.err = err
		return b
	}
	b.params = p
	return b
}

// WithFederation sets the multicast prefix and local peer identity.
func (b *Builder) WithFederation(multicastPrefix, peerPrefix string) *Builder {
	if b.err != nil {
		return b
	}
	if multicastPrefix == "" {
		b.err = fmt.Errorf("config: multicastPrefix must not be empty")
		return b
	}
	b.params.MulticastPrefix = multicastPrefix
	b.params.PeerPrefix = peerPrefix
	return b
}

// WithThresholds sets the admission and confirmation thresholds.
func (b *Builder) WithThresholds(precedingRecordNum, contributionWeight, confirmWeight int) *Builder {
	if b.err != nil {
		return b
	}
	if precedingRecordNum < 1 {
		b.err = fmt.Errorf("config: precedingRecordNum must be at least 1, got %d", precedingRecordNum)
		return b
	}
	if confirmWeight < 1 {
		b.err = fmt.Errorf("config: confirmWeight must be at least 1, got %d", confirmWeight)
		return b
	}
	b.params.PrecedingRecordNum = precedingRecordNum
	b.params.ContributionWeight = contributionWeight
	b.params.ConfirmWeight = confirmWeight
	return b
}

// WithContributionPolicy toggles the optional admission rule.
func (b *Builder) WithContributionPolicy(enabled bool) *Builder {
	if b.err != nil {
		return b
	}
	b.params.UsingContributionPolicy = enabled
	return b
}

// WithTrustAnchor sets the bootstrap certificate path and initial trust
// roster.
func (b *Builder) WithTrustAnchor(certPath string, peerCertPaths []string) *Builder {
	if b.err != nil {
		return b
	}
	b.params.TrustAnchorCertPath = certPath
	b.params.StartingPeerCertPaths = append([]string{}, peerCertPaths...)
	return b
}

// WithGenesisNum sets the number of GENESIS records minted at bootstrap.
func (b *Builder) WithGenesisNum(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 1 {
		b.err = fmt.Errorf("config: genesisNum must be at least 1, got %d", n)
		return b
	}
	b.params.GenesisNum = n
	return b
}

// WithTimers sets the producer loop's periodic intervals.
func (b *Builder) WithTimers(recordGenFreq, syncFreq, fetchRetryFreq time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	if recordGenFreq <= 0 || syncFreq <= 0 {
		b.err = fmt.Errorf("config: recordGenFreq and syncFreq must be positive")
		return b
	}
	b.params.RecordGenFreq = recordGenFreq
	b.params.SyncFreq = syncFreq
	if fetchRetryFreq > 0 {
		b.params.FetchRetryFreq = fetchRetryFreq
	}
	return b
}

// Build validates accumulated settings and returns the final Parameters.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	if b.params.MulticastPrefix == "" {
		return Parameters{}, fmt.Errorf("config: multicastPrefix is required")
	}
	if b.params.PeerPrefix == "" {
		return Parameters{}, fmt.Errorf("config: peerPrefix is required")
	}
	return b.params, nil
}
