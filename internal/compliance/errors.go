package compliance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationTimeout is the root sentinel for confirmation-wait
// failures; every ComplianceViolation matches it via errors.Is.
var ErrConfirmationTimeout = errors.New("confirmation timeout")

// ComplianceViolation reports that a transaction failed to reach the
// required confirmation depth before the deadline. It carries the last
// observed confirmation count so callers can distinguish "almost there"
// from "never seen".
type ComplianceViolation struct {
	TxHash   string
	Required int
	Actual   int
}

func (e *ComplianceViolation) Error() string {
	return fmt.Sprintf("transaction %s has %d of %d required confirmations", e.TxHash, e.Actual, e.Required)
}

// Unwrap ties the violation to ErrConfirmationTimeout, keeping it
// distinguishable from transport errors with a single errors.Is check.
func (e *ComplianceViolation) Unwrap() error {
	return ErrConfirmationTimeout
}

// UnsupportedStandard reports a compliance standard with neither a built-in
// nor a registered custom generator. It is surfaced immediately and never
// retried.
type UnsupportedStandard struct {
	Standard  string
	Supported []string
}

func (e *UnsupportedStandard) Error() string {
	return fmt.Sprintf("unsupported compliance standard %q (supported: %s)", e.Standard, strings.Join(e.Supported, ", "))
}
