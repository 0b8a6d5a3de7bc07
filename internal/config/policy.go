package config

// FeePolicy is the fee and slippage policy applied to every outgoing quote.
// It is built once at startup and passed by value; nothing mutates it afterwards.
type FeePolicy struct {
	FeeBps             int
	FeeRecipient       string
	DefaultSlippageBps int
}

// FeeActive reports whether fee parameters may be injected at all.
// The per-request buyToken check happens in the transformation itself.
func (p FeePolicy) FeeActive() bool {
	return p.FeeBps > 0 && p.FeeRecipient != ""
}
