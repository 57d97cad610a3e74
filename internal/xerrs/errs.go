// Package xerrs provides a small multi-error accumulator used by
// bootstrap paths that perform several independently fallible steps.
package xerrs

import (
	"errors"
	"fmt"
	"strings"
)

// Errs accumulates zero or more errors and flattens them into one.
type Errs struct {
	errs []error
}

// Add records err, ignoring nil.
func (e *Errs) Add(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

// Errored reports whether any error has been recorded.
func (e *Errs) Errored() bool {
	return len(e.errs) > 0
}

// Len returns the number of recorded errors.
func (e *Errs) Len() int {
	return len(e.errs)
}

// Err flattens the recorded errors into a single error, or nil.
func (e *Errs) Err() error {
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return errors.New(e.String())
	}
}

func (e *Errs) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(e.errs))
	for _, err := range e.errs {
		sb.WriteString("\n\t* ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}
