package config

import "sync"

var (
	runtimeParams Parameters
	runtimeMu     sync.RWMutex
	initialized   bool
)

// InitializeRuntime sets the process-wide runtime parameters from a
// named preset, mirroring the teacher's config.InitializeRuntime. Most
// callers (cmd/dledger) use this once at startup; library code should
// prefer passing Parameters explicitly rather than reading the runtime
// singleton.
func InitializeRuntime(presetName string) error {
	p, err := GetParametersByName(presetName)
	if err != nil {
		return err
	}
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeParams = p
	initialized = true
	return nil
}

// SetRuntime installs p directly as the runtime parameters, used when
// the caller already has a fully built Parameters (e.g. from Builder).
func SetRuntime(p Parameters) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeParams = p
	initialized = true
}

// GetRuntime returns the current runtime parameters, defaulting to
// DefaultParameters if InitializeRuntime/SetRuntime was never called.
func GetRuntime() Parameters {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	if !initialized {
		return DefaultParameters
	}
	return runtimeParams
}
