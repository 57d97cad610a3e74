package engine

import "errors"

// Error kinds per spec.md §7. Structural decode failures surface as
// record.ErrMalformedRecord; the rest are declared here.
var (
	ErrStructuralViolation   = errors.New("engine: wrong number of preceding references")
	ErrSignatureInvalid      = errors.New("engine: signature does not verify")
	ErrInterlockViolation    = errors.New("engine: interlock violation")
	ErrContributionViolation = errors.New("engine: contribution policy violation")
	ErrNotAuthorized         = errors.New("engine: local identity has no certificate")
	ErrTipSelectionFailed    = errors.New("engine: could not select preceding references from tips")
)
