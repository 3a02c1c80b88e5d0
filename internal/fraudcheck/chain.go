package fraudcheck

// Chain is an ordered, append-only sequence of rules evaluated with
// short-circuit OR semantics. Append rules during setup; Evaluate is
// read-only and safe for concurrent use afterwards.
type Chain struct {
	rules []Rule
}

// NewChain creates a chain evaluating the given rules in order.
func NewChain(rules ...Rule) *Chain {
	return &Chain{rules: rules}
}

// Append adds rules to the end of the chain. Not safe to call concurrently
// with Evaluate; the chain is meant to be fully built before use.
func (c *Chain) Append(rules ...Rule) {
	c.rules = append(c.rules, rules...)
}

// Len returns the number of registered rules.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Evaluate reports whether any rule flags the transaction. Rules run in
// registration order and evaluation stops at the first match.
func (c *Chain) Evaluate(tx Transaction) bool {
	for _, rule := range c.rules {
		if rule.Evaluate(tx) {
			return true
		}
	}

	return false
}
