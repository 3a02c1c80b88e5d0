// Package fraudcheck evaluates transactions against an ordered chain of
// fraud detection rules. Rules are stateless after construction and the
// chain evaluates them with short-circuit OR semantics: the first rule that
// flags a transaction decides the outcome.
package fraudcheck

import (
	"math/big"
	"strings"

	"github.com/txsentinel/txsentinel/internal/pkg/types"
)

// Rule is a single fraud predicate over a transaction. Evaluate must be
// side-effect free; the same rule instance is shared across poll cycles.
type Rule interface {
	// Evaluate reports whether the transaction should be flagged.
	Evaluate(tx Transaction) bool
}

// RuleFunc adapts a plain predicate into a Rule.
type RuleFunc func(tx Transaction) bool

// Evaluate implements Rule by calling the wrapped predicate.
func (f RuleFunc) Evaluate(tx Transaction) bool {
	return f(tx)
}

// addressOptions control how rule constructors treat addresses.
type addressOptions struct {
	normalize bool
}

// AddressOption configures address handling for the built-in rules.
type AddressOption func(*addressOptions)

// WithNormalizedAddresses makes address comparisons case-insensitive by
// lowercasing both the configured set and the transaction addresses.
// Comparisons are exact-match by default, which treats differently
// checksummed forms of the same address as distinct.
func WithNormalizedAddresses() AddressOption {
	return func(o *addressOptions) {
		o.normalize = true
	}
}

// newAddressSet builds the lookup set for a rule, applying normalization
// when requested.
func newAddressSet(addresses []string, opts []AddressOption) (types.Set[string], bool) {
	var o addressOptions
	for _, opt := range opts {
		opt(&o)
	}

	set := types.NewSet[string]()
	for _, addr := range addresses {
		if o.normalize {
			addr = strings.ToLower(addr)
		}
		set.Add(addr)
	}

	return set, o.normalize
}

// highValue flags transactions whose value is strictly greater than the
// configured threshold. A value equal to the threshold passes through.
type highValue struct {
	threshold *big.Int
}

var _ Rule = highValue{}

// NewHighValue returns a rule flagging transactions with value strictly
// above threshold, in native units. The rule treats transaction fields as a
// construction-time contract: callers guarantee Value is set, keeping the
// hot path branch-free.
func NewHighValue(threshold *big.Int) Rule {
	return highValue{threshold: threshold}
}

func (r highValue) Evaluate(tx Transaction) bool {
	return tx.Value.Cmp(r.threshold) > 0
}

// suspiciousAddress flags transactions touching any address from a
// configured watch set, matching either sender or recipient.
type suspiciousAddress struct {
	set       types.Set[string]
	normalize bool
}

var _ Rule = suspiciousAddress{}

// NewSuspiciousAddress returns a rule flagging transactions whose sender or
// recipient is in the given set. An empty set never flags.
func NewSuspiciousAddress(addresses []string, opts ...AddressOption) Rule {
	set, normalize := newAddressSet(addresses, opts)
	return suspiciousAddress{set: set, normalize: normalize}
}

func (r suspiciousAddress) Evaluate(tx Transaction) bool {
	from, to := tx.From, tx.To
	if r.normalize {
		from, to = strings.ToLower(from), strings.ToLower(to)
	}
	return r.set.Contains(from) || r.set.Contains(to)
}

// unknownSender flags transactions whose sender is not in the known set. An
// empty known set flags every transaction.
type unknownSender struct {
	known     types.Set[string]
	normalize bool
}

var _ Rule = unknownSender{}

// NewUnknownSender returns a rule flagging transactions originating from any
// address outside the known set.
func NewUnknownSender(known []string, opts ...AddressOption) Rule {
	set, normalize := newAddressSet(known, opts)
	return unknownSender{known: set, normalize: normalize}
}

func (r unknownSender) Evaluate(tx Transaction) bool {
	from := tx.From
	if r.normalize {
		from = strings.ToLower(from)
	}
	return !r.known.Contains(from)
}
