// internal/bundle/types.go
package bundle

// Bundle is an ordered group of base58-encoded wire transactions that the
// relay treats as one unit. The backend may return transactions already
// carrying a subset of their required signatures (fee payer signed
// server-side in some flows).
type Bundle struct {
	Transactions []string
}

// Len returns the number of transactions in the bundle.
func (b Bundle) Len() int {
	return len(b.Transactions)
}

// TotalTransactions sums the transaction count across bundles.
func TotalTransactions(bundles []Bundle) int {
	total := 0
	for _, b := range bundles {
		total += len(b.Transactions)
	}
	return total
}
